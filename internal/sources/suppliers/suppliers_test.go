package suppliers

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const ksenukaiPage = `<html><body>
  <div data-el="product">
    <a data-el="product-title" href="/lv/p/bitumena-loksnes-123">Bitumena jumta loksnes 8 gab.</a>
    <span data-el="product-price-current">24,99 €</span>
  </div>
  <div data-el="product">
    <a data-el="product-title" href="https://www.ksenukai.lv/lv/p/skruvju-komplekts">Jumta skrūvju komplekts</a>
    <span data-el="product-price-current">6,49 €</span>
  </div>
  <div data-el="product">
    <a data-el="product-title" href="/lv/p/empty"></a>
  </div>
</body></html>`

const stokkerPage = `<html><body>
  <div class="product-list-item">
    <a class="product-name" href="/lv/p/drill-887">Akumulatora urbjmašīna</a>
    <span class="price">129,00 €</span>
  </div>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestParseProductsKsenukai(t *testing.T) {
	rows := parseProducts(mustDoc(t, ksenukaiPage), knownSites["ksenukai"], 10)

	if len(rows) != 2 {
		t.Fatalf("expected 2 products (titleless ones dropped), got %d", len(rows))
	}

	first := rows[0]
	if first["title"] != "Bitumena jumta loksnes 8 gab." {
		t.Errorf("unexpected title: %v", first["title"])
	}
	if first["url"] != "https://www.ksenukai.lv/lv/p/bitumena-loksnes-123" {
		t.Errorf("relative href not resolved: %v", first["url"])
	}
	if first["price"] != "24,99 €" {
		t.Errorf("unexpected price: %v", first["price"])
	}
	if first["body"] != "24,99 €" {
		t.Errorf("body should carry the price, got %v", first["body"])
	}
	if first["author"] != "K-Senukai" {
		t.Errorf("unexpected author: %v", first["author"])
	}

	if rows[1]["url"] != "https://www.ksenukai.lv/lv/p/skruvju-komplekts" {
		t.Errorf("absolute href should pass through, got %v", rows[1]["url"])
	}
}

func TestParseProductsStokker(t *testing.T) {
	rows := parseProducts(mustDoc(t, stokkerPage), knownSites["stokker"], 10)

	if len(rows) != 1 {
		t.Fatalf("expected 1 product, got %d", len(rows))
	}
	if rows[0]["author"] != "Stokker" {
		t.Errorf("unexpected author: %v", rows[0]["author"])
	}
	if rows[0]["url"] != "https://www.stokker.com/lv/p/drill-887" {
		t.Errorf("unexpected url: %v", rows[0]["url"])
	}
}

func TestValidateConfig(t *testing.T) {
	if !(&Adapter{sites: []string{"ksenukai"}}).ValidateConfig() {
		t.Error("known site should validate")
	}
	if (&Adapter{sites: []string{"unknown-shop"}}).ValidateConfig() {
		t.Error("unknown site should not validate")
	}
	if (&Adapter{}).ValidateConfig() {
		t.Error("no sites should not validate")
	}
}
