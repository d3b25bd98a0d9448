package pricestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"igold-backend/lib/testutil"
	"igold-backend/services/pricestore/db"
)

func setup(t *testing.T) (Service, func()) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "pricestore",
		DbSchema: db.Schema,
	})
	return NewService(result.DB), cleanup
}

func float(v float64) *float64 {
	return &v
}

func goldBar(name, url string) Product {
	return Product{
		Name:           name,
		Url:            url,
		MetalType:      "gold",
		ProductType:    "bar",
		WeightG:        float(10),
		PurityPerMille: float(999.9),
		FineMetalG:     float(9.999),
	}
}

func TestUpsertProductIdentity(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	id1, err := service.UpsertProduct(ctx, goldBar("Златно кюлче 10 гр.", "/kyulche-10g"))
	require.NoError(t, err)

	// same identity, drifted url: row updated in place
	updated := goldBar("Златно кюлче 10 гр.", "/kyulche-10g-v2")
	updated.WeightG = float(10.5)
	id2, err := service.UpsertProduct(ctx, updated)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	exists, err := service.Exists(ctx, "/kyulche-10g-v2", "gold")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = service.Exists(ctx, "/kyulche-10g", "gold")
	require.NoError(t, err)
	require.False(t, exists)

	// same name under a different metal is a distinct product
	silver := goldBar("Златно кюлче 10 гр.", "/srebro-10g")
	silver.MetalType = "silver"
	id3, err := service.UpsertProduct(ctx, silver)
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestAppendPriceValidation(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Кюлче", "/kyulche"))
	require.NoError(t, err)

	now := time.Now()

	err = service.AppendPrice(ctx, "/kyulche", "gold", 0, 100, now)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	err = service.AppendPrice(ctx, "/kyulche", "gold", 100, -1, now)
	require.ErrorAs(t, err, &validationErr)

	// buy of zero is allowed (product not bought back)
	err = service.AppendPrice(ctx, "/kyulche", "gold", 100, 0, now)
	require.NoError(t, err)

	err = service.AppendPrice(ctx, "/nyama-takova", "gold", 100, 90, now)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestAppendPriceIdempotent(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Кюлче", "/kyulche"))
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	require.NoError(t, service.AppendPrice(ctx, "/kyulche", "gold", 1000, 950, at))
	// same timestamp overwrites instead of duplicating
	require.NoError(t, service.AppendPrice(ctx, "/kyulche", "gold", 1010, 960, at))

	history, err := service.PriceHistory(ctx, "/kyulche", "gold", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.InDelta(t, 1010, history[0].SellPriceEur, 1e-9)
	require.InDelta(t, 960, history[0].BuyPriceEur, 1e-9)
}

func TestPriceHistoryOrderAndWindow(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Кюлче", "/kyulche"))
	require.NoError(t, err)

	now := time.Now()
	for _, age := range []int{10, 5, 1} {
		at := now.AddDate(0, 0, -age)
		require.NoError(t, service.AppendPrice(ctx, "/kyulche", "gold", float64(1000+age), 950, at))
	}

	history, err := service.PriceHistory(ctx, "/kyulche", "gold", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// newest first
	require.InDelta(t, 1001, history[0].SellPriceEur, 1e-9)
	require.InDelta(t, 1010, history[2].SellPriceEur, 1e-9)

	windowed, err := service.PriceHistory(ctx, "/kyulche", "gold", 7)
	require.NoError(t, err)
	require.Len(t, windowed, 2)
}

func TestLatestPrices(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	cheap := goldBar("Евтино кюлче", "/evtino")
	_, err := service.UpsertProduct(ctx, cheap)
	require.NoError(t, err)

	expensive := goldBar("Скъпа монета", "/skapa")
	expensive.ProductType = "coin"
	_, err = service.UpsertProduct(ctx, expensive)
	require.NoError(t, err)

	noFine := Product{
		Name:        "Монета без данни",
		Url:         "/bez-danni",
		MetalType:   "gold",
		ProductType: "unknown",
	}
	_, err = service.UpsertProduct(ctx, noFine)
	require.NoError(t, err)

	// a product with no prices at all never shows up
	_, err = service.UpsertProduct(ctx, goldBar("Без цени", "/bez-ceni"))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, service.AppendPrice(ctx, "/evtino", "gold", 1277.95, 1226.61, now.Add(-time.Hour)))
	// only the newest observation per product is reported
	require.NoError(t, service.AppendPrice(ctx, "/evtino", "gold", 1278.95, 1226.61, now))
	require.NoError(t, service.AppendPrice(ctx, "/skapa", "gold", 1400, 1300, now))
	require.NoError(t, service.AppendPrice(ctx, "/bez-danni", "gold", 500, 450, now))

	latest, err := service.LatestPrices(ctx, "gold")
	require.NoError(t, err)
	require.Len(t, latest, 3)

	// ascending by price per gram, null per-gram last
	require.Equal(t, "Евтино кюлче", latest[0].ProductName)
	require.Equal(t, "Скъпа монета", latest[1].ProductName)
	require.Equal(t, "Монета без данни", latest[2].ProductName)
	require.Nil(t, latest[2].PricePerGram)

	require.NotNil(t, latest[0].PricePerGram)
	require.InDelta(t, 127.91, *latest[0].PricePerGram, 1e-9)
	require.NotNil(t, latest[0].SpreadPct)
	require.InDelta(t, 4.09, *latest[0].SpreadPct, 1e-9)
	require.InDelta(t, 1278.95, latest[0].SellPriceEur, 1e-9)
}

func TestAppendPricesBatch(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Първо", "/parvo"))
	require.NoError(t, err)
	_, err = service.UpsertProduct(ctx, goldBar("Второ", "/vtoro"))
	require.NoError(t, err)

	now := time.Now()
	written, err := service.AppendPricesBatch(ctx, "gold", []PriceEntry{
		{Url: "/parvo", SellPriceEur: 1000, BuyPriceEur: 950, Timestamp: now},
		{Url: "/vtoro", SellPriceEur: 2000, BuyPriceEur: 1900, Timestamp: now},
		// invalid and unknown rows are skipped, not fatal
		{Url: "/parvo", SellPriceEur: 0, BuyPriceEur: 950, Timestamp: now},
		{Url: "/nepoznat", SellPriceEur: 500, BuyPriceEur: 450, Timestamp: now},
	})
	require.NoError(t, err)
	require.Equal(t, 2, written)

	latest, err := service.LatestPrices(ctx, "gold")
	require.NoError(t, err)
	require.Len(t, latest, 2)
}

func TestAppendPricesBatchDuplicateUrl(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Дубъл", "/dubal"))
	require.NoError(t, err)

	// a listing appearing twice in one scan overwrites its earlier row
	// and counts once
	now := time.Now()
	written, err := service.AppendPricesBatch(ctx, "gold", []PriceEntry{
		{Url: "/dubal", SellPriceEur: 1000, BuyPriceEur: 950, Timestamp: now},
		{Url: "/dubal", SellPriceEur: 1010, BuyPriceEur: 960, Timestamp: now},
	})
	require.NoError(t, err)
	require.Equal(t, 1, written)

	history, err := service.PriceHistory(ctx, "/dubal", "gold", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 1010.0, history[0].SellPriceEur)
}

func TestPriceChanges(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Скача", "/skacha"))
	require.NoError(t, err)
	_, err = service.UpsertProduct(ctx, goldBar("Стои", "/stoi"))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, service.AppendPrice(ctx, "/skacha", "gold", 1000, 950, now.Add(-48*time.Hour)))
	require.NoError(t, service.AppendPrice(ctx, "/skacha", "gold", 1100, 1050, now))
	require.NoError(t, service.AppendPrice(ctx, "/stoi", "gold", 1000, 950, now.Add(-48*time.Hour)))
	require.NoError(t, service.AppendPrice(ctx, "/stoi", "gold", 1001, 950, now))

	changes, err := service.PriceChanges(ctx, "gold", 7*24*time.Hour, 5)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes[0]
	require.Equal(t, "Скача", change.ProductName)
	require.InDelta(t, 10, change.ChangePct, 1e-9)
	require.NotNil(t, change.PerGramDelta)
	require.InDelta(t, 10, *change.PerGramDelta, 0.02)
}

func TestStats(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.UpsertProduct(ctx, goldBar("Кюлче", "/kyulche"))
	require.NoError(t, err)

	coin := goldBar("Монета", "/moneta")
	coin.ProductType = "coin"
	_, err = service.UpsertProduct(ctx, coin)
	require.NoError(t, err)

	other := goldBar("Друго", "/drugo")
	other.ProductType = "unknown"
	_, err = service.UpsertProduct(ctx, other)
	require.NoError(t, err)

	silver := goldBar("Сребро", "/srebro")
	silver.MetalType = "silver"
	_, err = service.UpsertProduct(ctx, silver)
	require.NoError(t, err)

	stats, err := service.Stats(ctx, "gold")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(1), stats.Bars)
	require.Equal(t, int64(1), stats.Coins)
	require.Equal(t, int64(1), stats.Unknown)
}
