package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"igold-backend/lib/scrapers/igold"
	"igold-backend/lib/testutil"
	"igold-backend/services/pricestore"
	"igold-backend/services/pricestore/db"
)

func categoryHTML(items ...string) string {
	out := "<html><body><ul>"
	for _, item := range items {
		out += item
	}
	return out + "</ul></body></html>"
}

func categoryItem(url string, sell, buy string) string {
	return fmt.Sprintf(`<li class="kv__member-item">
  <dd class="kv__member-name"><a href="%s"><h2>item</h2></a></dd>
  <dt class="kv__member-cat-left"><span class="catE-1">%s</span></dt>
  <dt class="kv__member-cat-right"><span class="catE-2">%s</span></dt>
</li>`, url, buy, sell)
}

func productHTML(title, weight, purity string) string {
	return fmt.Sprintf(`<html><body><main>
<h1>%s</h1>
<div class="memberheader__meta effect">
  <p>Тегло: %s</p>
  <p>Проба: %s</p>
</div>
</main></body></html>`, title, weight, purity)
}

type fakeSite struct {
	pages        map[string]string
	detailHits   map[string]int
	categoryHits int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:      map[string]string{},
		detailHits: map[string]int{},
	}
}

func (f *fakeSite) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := f.pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Path == "/moneti" {
			f.categoryHits++
		} else {
			f.detailHits[r.URL.Path]++
		}
		w.Write([]byte(page))
	})
}

func setup(t *testing.T, site *fakeSite) (Scanner, pricestore.Service, func()) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "scanner",
		DbSchema: db.Schema,
	})

	server := httptest.NewServer(site.handler())

	client := igold.NewClient(igold.Config{
		BaseUrl:       server.URL,
		Timeout:       time.Second * 5,
		DelayMin:      -1,
		RetryAttempts: 1,
		RetryBackoff:  1,
	})
	store := pricestore.NewService(result.DB)

	return NewScanner(client, store), store, func() {
		server.Close()
		cleanup()
	}
}

var testCategories = []igold.Category{
	{Path: "/moneti", Hint: igold.ProductCoin},
}

func TestScanMaterializesOnce(t *testing.T) {
	site := newFakeSite()
	site.pages["/moneti"] = categoryHTML(
		categoryItem("/zlatna-moneta-panda", "2 750,50 €", "2 700,00 €"),
	)
	site.pages["/zlatna-moneta-panda"] = productHTML(
		"Златна монета Панда", "30,00 гр.", "999/1000")

	scanner, store, cleanup := setup(t, site)
	defer cleanup()
	ctx := context.Background()

	report, err := scanner.Scan(ctx, igold.MetalGold, testCategories, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.NewProducts)
	require.Equal(t, 1, report.PricesWritten)
	require.Empty(t, report.Failed)
	require.Equal(t, 1, site.detailHits["/zlatna-moneta-panda"])

	products, err := store.Products(ctx, "gold")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Златна монета Панда", products[0].Name)
	require.Equal(t, "coin", products[0].ProductType)
	require.NotNil(t, products[0].FineMetalG)
	require.InDelta(t, 30*999.0/1000, *products[0].FineMetalG, 1e-9)

	// second scan: no detail refetch, just another price observation
	report, err = scanner.Scan(ctx, igold.MetalGold, testCategories, nil)
	require.NoError(t, err)
	require.Equal(t, 0, report.NewProducts)
	require.Equal(t, 1, report.PricesWritten)
	require.Equal(t, 1, site.detailHits["/zlatna-moneta-panda"])
}

func TestScanToleratesItemFailure(t *testing.T) {
	site := newFakeSite()
	site.pages["/moneti"] = categoryHTML(
		categoryItem("/zlatna-moneta-panda", "2 750,50 €", "2 700,00 €"),
		// detail page missing: materialization fails, scan continues
		categoryItem("/izchezva", "1 000,00 €", "950,00 €"),
		categoryItem("/zlatno-kyulche", "500,00 €", "480,00 €"),
	)
	site.pages["/zlatna-moneta-panda"] = productHTML(
		"Златна монета Панда", "30,00 гр.", "999/1000")
	site.pages["/zlatno-kyulche"] = productHTML(
		"Златно кюлче", "5,00 гр.", "999,9")

	scanner, _, cleanup := setup(t, site)
	defer cleanup()

	report, err := scanner.Scan(context.Background(), igold.MetalGold, testCategories, nil)
	require.NoError(t, err)
	require.Equal(t, 2, report.NewProducts)
	require.Equal(t, 2, report.PricesWritten)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "/izchezva", report.Failed[0].Url)
}

func TestScanHonorsSkipList(t *testing.T) {
	site := newFakeSite()
	site.pages["/moneti"] = categoryHTML(
		categoryItem("/zlatna-moneta-panda", "2 750,50 €", "2 700,00 €"),
		categoryItem("/nelikvidno-i-povredeno-zlato/scrap", "100,00 €", "90,00 €"),
	)
	site.pages["/zlatna-moneta-panda"] = productHTML(
		"Златна монета Панда", "30,00 гр.", "999/1000")

	scanner, _, cleanup := setup(t, site)
	defer cleanup()

	report, err := scanner.Scan(context.Background(), igold.MetalGold, testCategories,
		[]string{"/nelikvidno-i-povredeno-zlato"})
	require.NoError(t, err)
	require.Equal(t, 1, report.NewProducts)
	require.Equal(t, 1, report.PricesWritten)
	require.Zero(t, site.detailHits["/nelikvidno-i-povredeno-zlato/scrap"])
}

func TestScanSkipsMissingCategory(t *testing.T) {
	site := newFakeSite()

	scanner, _, cleanup := setup(t, site)
	defer cleanup()

	report, err := scanner.Scan(context.Background(), igold.MetalGold, testCategories, nil)
	require.NoError(t, err)
	require.Zero(t, report.NewProducts)
	require.Zero(t, report.PricesWritten)
	require.Len(t, report.Failed, 1)
}
