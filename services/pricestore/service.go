package pricestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"igold-backend/lib/pricing"
	"igold-backend/services/pricestore/db"
)

var tracer = otel.Tracer("services/pricestore")

// Product is the materialized form of a scraped listing. Identity is
// (Name, MetalType); the url is canonical but allowed to drift.
type Product struct {
	Name           string
	Url            string
	MetalType      string
	ProductType    string
	WeightG        *float64
	PurityPerMille *float64
	FineMetalG     *float64
}

type PriceEntry struct {
	Url          string
	SellPriceEur float64
	BuyPriceEur  float64
	Timestamp    time.Time
}

type PricePoint struct {
	SellPriceEur float64
	BuyPriceEur  float64
	Timestamp    time.Time
}

type LatestPrice struct {
	ProductName  string
	Url          string
	ProductType  string
	WeightG      *float64
	FineMetalG   *float64
	SellPriceEur float64
	BuyPriceEur  float64
	PricePerGram *float64
	SpreadPct    *float64
	Timestamp    time.Time
}

type PriceChange struct {
	ProductName    string
	ProductType    string
	FirstSellEur   float64
	LastSellEur    float64
	ChangePct      float64
	PerGramDelta   *float64
	FirstTimestamp time.Time
	LastTimestamp  time.Time
}

type Statistics struct {
	Total   int64
	Bars    int64
	Coins   int64
	Unknown int64
}

// ValidationError marks a price observation the store refuses to record.
type ValidationError struct {
	Url    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("price for %s rejected: %s", e.Url, e.Reason)
}

var ErrProductNotFound = errors.New("product not found")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

// Exists reports whether a product with this canonical url has been
// materialized. Discovery checks by url since the listing page only
// carries urls, not names.
func (s Service) Exists(ctx context.Context, url, metalType string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Exists")
	defer span.End()

	count, err := s.qry.ProductExistsByUrl(ctx, db.ProductExistsByUrlParams{
		Url:       url,
		MetalType: metalType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return count > 0, nil
}

// UpsertProduct inserts a new product or, on an existing
// (name, metal_type) identity, overwrites its url, type, weight and
// purity fields in place.
func (s Service) UpsertProduct(ctx context.Context, product Product) (int64, error) {
	ctx, span := tracer.Start(ctx, "UpsertProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product", product.Name),
		attribute.String("metal", product.MetalType),
	)

	id, err := s.qry.UpsertProduct(ctx, db.UpsertProductParams{
		ProductName:    product.Name,
		Url:            product.Url,
		MetalType:      product.MetalType,
		ProductType:    product.ProductType,
		WeightG:        toNullFloat(product.WeightG),
		PurityPerMille: toNullFloat(product.PurityPerMille),
		FineMetalG:     toNullFloat(product.FineMetalG),
		CreatedAt:      time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return id, nil
}

func validateEntry(url string, sell, buy float64) error {
	if sell <= 0 {
		return &ValidationError{Url: url, Reason: fmt.Sprintf("sell price %.2f <= 0", sell)}
	}
	if buy < 0 {
		return &ValidationError{Url: url, Reason: fmt.Sprintf("buy price %.2f < 0", buy)}
	}
	return nil
}

// AppendPrice records one observation for a materialized product. An
// observation with the same timestamp overwrites the previous values
// rather than duplicating the row.
func (s Service) AppendPrice(ctx context.Context, url, metalType string, sell, buy float64, at time.Time) error {
	ctx, span := tracer.Start(ctx, "AppendPrice")
	defer span.End()

	if err := validateEntry(url, sell, buy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	product, err := txqry.GetProductByUrl(ctx, db.GetProductByUrlParams{
		Url:       url,
		MetalType: metalType,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, url)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = txqry.InsertPrice(ctx, db.InsertPriceParams{
		ProductID:    product.ID,
		SellPriceEur: sell,
		BuyPriceEur:  buy,
		Timestamp:    at.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return tx.Commit()
}

// AppendPricesBatch writes a whole category scan in one transaction. The
// product set is looked up once for the batch; rows that fail validation
// or reference an unknown url are logged and skipped. Returns the number
// of rows written.
func (s Service) AppendPricesBatch(ctx context.Context, metalType string, entries []PriceEntry) (int, error) {
	ctx, span := tracer.Start(ctx, "AppendPricesBatch")
	defer span.End()

	span.SetAttributes(attribute.Int("entries", len(entries)))

	products, err := s.qry.ListProducts(ctx, metalType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	idByUrl := make(map[string]int64, len(products))
	for _, p := range products {
		idByUrl[p.Url] = p.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	type priceKey struct {
		id int64
		ts int64
	}
	seen := map[priceKey]bool{}

	written := 0
	for _, entry := range entries {
		if err := validateEntry(entry.Url, entry.SellPriceEur, entry.BuyPriceEur); err != nil {
			slog.WarnContext(ctx, "skipping invalid price entry", "err", err)
			continue
		}
		id, ok := idByUrl[entry.Url]
		if !ok {
			slog.WarnContext(ctx, "skipping price for unknown product", "url", entry.Url)
			continue
		}
		err = txqry.InsertPrice(ctx, db.InsertPriceParams{
			ProductID:    id,
			SellPriceEur: entry.SellPriceEur,
			BuyPriceEur:  entry.BuyPriceEur,
			Timestamp:    entry.Timestamp.Unix(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
		// a repeated (product, timestamp) pair overwrites the earlier
		// row, so it counts once
		key := priceKey{id: id, ts: entry.Timestamp.Unix()}
		if !seen[key] {
			seen[key] = true
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return written, nil
}

// LatestPrices returns each product's most recent observation with the
// derived per-gram price and spread, cheapest fine metal first. Products
// without a computable per-gram price sort to the end.
func (s Service) LatestPrices(ctx context.Context, metalType string) ([]LatestPrice, error) {
	ctx, span := tracer.Start(ctx, "LatestPrices")
	defer span.End()

	rows, err := s.qry.GetLatestPrices(ctx, metalType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]LatestPrice, 0, len(rows))
	for _, r := range rows {
		latest := LatestPrice{
			ProductName:  r.ProductName,
			Url:          r.Url,
			ProductType:  r.ProductType,
			WeightG:      fromNullFloat(r.WeightG),
			FineMetalG:   fromNullFloat(r.FineMetalG),
			SellPriceEur: r.SellPriceEur,
			BuyPriceEur:  r.BuyPriceEur,
			Timestamp:    time.Unix(r.Timestamp, 0),
		}
		if r.FineMetalG.Valid {
			if ppg, ok := pricing.PricePerGram(r.SellPriceEur, r.FineMetalG.Float64); ok {
				latest.PricePerGram = &ppg
			}
		}
		if spread, ok := pricing.SpreadPct(r.BuyPriceEur, r.SellPriceEur); ok {
			latest.SpreadPct = &spread
		}
		out = append(out, latest)
	}

	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := out[a].PricePerGram, out[b].PricePerGram
		if pa == nil {
			return false
		}
		if pb == nil {
			return true
		}
		return *pa < *pb
	})
	return out, nil
}

// PriceHistory returns observations newest first. days <= 0 means the
// full history.
func (s Service) PriceHistory(ctx context.Context, url, metalType string, days int) ([]PricePoint, error) {
	ctx, span := tracer.Start(ctx, "PriceHistory")
	defer span.End()

	product, err := s.qry.GetProductByUrl(ctx, db.GetProductByUrlParams{
		Url:       url,
		MetalType: metalType,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, url)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var after int64
	if days > 0 {
		after = time.Now().AddDate(0, 0, -days).Unix()
	}

	rows, err := s.qry.GetPriceHistory(ctx, db.GetPriceHistoryParams{
		ProductID: product.ID,
		After:     after,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]PricePoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, PricePoint{
			SellPriceEur: r.SellPriceEur,
			BuyPriceEur:  r.BuyPriceEur,
			Timestamp:    time.Unix(r.Timestamp, 0),
		})
	}
	return out, nil
}

// PriceChanges lists products whose sell price moved at least
// thresholdPct between their first and last observation inside the
// window, largest move first.
func (s Service) PriceChanges(ctx context.Context, metalType string, window time.Duration, thresholdPct float64) ([]PriceChange, error) {
	ctx, span := tracer.Start(ctx, "PriceChanges")
	defer span.End()

	rows, err := s.qry.GetPriceEndpoints(ctx, db.GetPriceEndpointsParams{
		After:     time.Now().Add(-window).Unix(),
		MetalType: metalType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var out []PriceChange
	for _, r := range rows {
		if r.FirstSellEur <= 0 || r.FirstTimestamp == r.LastTimestamp {
			continue
		}
		changePct := pricing.Round2((r.LastSellEur - r.FirstSellEur) / r.FirstSellEur * 100)
		if changePct < thresholdPct && changePct > -thresholdPct {
			continue
		}

		change := PriceChange{
			ProductName:    r.ProductName,
			ProductType:    r.ProductType,
			FirstSellEur:   r.FirstSellEur,
			LastSellEur:    r.LastSellEur,
			ChangePct:      changePct,
			FirstTimestamp: time.Unix(r.FirstTimestamp, 0),
			LastTimestamp:  time.Unix(r.LastTimestamp, 0),
		}
		if r.FineMetalG.Valid {
			first, okFirst := pricing.PricePerGram(r.FirstSellEur, r.FineMetalG.Float64)
			last, okLast := pricing.PricePerGram(r.LastSellEur, r.FineMetalG.Float64)
			if okFirst && okLast {
				delta := pricing.Round2(last - first)
				change.PerGramDelta = &delta
			}
		}
		out = append(out, change)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return abs(out[a].ChangePct) > abs(out[b].ChangePct)
	})
	return out, nil
}

// Products lists every materialized product for a metal.
func (s Service) Products(ctx context.Context, metalType string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "Products")
	defer span.End()

	rows, err := s.qry.ListProducts(ctx, metalType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, Product{
			Name:           r.ProductName,
			Url:            r.Url,
			MetalType:      r.MetalType,
			ProductType:    r.ProductType,
			WeightG:        fromNullFloat(r.WeightG),
			PurityPerMille: fromNullFloat(r.PurityPerMille),
			FineMetalG:     fromNullFloat(r.FineMetalG),
		})
	}
	return out, nil
}

// Stats returns product counts by type for a metal.
func (s Service) Stats(ctx context.Context, metalType string) (Statistics, error) {
	ctx, span := tracer.Start(ctx, "Stats")
	defer span.End()

	rows, err := s.qry.CountProductsByType(ctx, metalType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Statistics{}, err
	}

	var stats Statistics
	for _, r := range rows {
		stats.Total += r.Count
		switch r.ProductType {
		case "bar":
			stats.Bars += r.Count
		case "coin":
			stats.Coins += r.Count
		default:
			stats.Unknown += r.Count
		}
	}
	return stats, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
