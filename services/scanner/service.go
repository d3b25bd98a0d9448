package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"igold-backend/lib/bgtext"
	"igold-backend/lib/scrapers/igold"
	"igold-backend/services/pricestore"
)

var tracer = otel.Tracer("services/scanner")

// names this close that belong to different identities are probably the
// same product renamed; worth a warning but never merged automatically
const nameSimilarityHint = 0.93

// Report summarizes one scan run.
type Report struct {
	NewProducts   int
	PricesWritten int
	Failed        []igold.FailedURL
}

// Scanner walks category listings, materializes newly discovered
// products and appends price observations for everything else.
type Scanner struct {
	client *igold.Client
	store  pricestore.Service
}

func NewScanner(client *igold.Client, store pricestore.Service) Scanner {
	return Scanner{
		client: client,
		store:  store,
	}
}

// ScanMetal runs a full sequential scan over every category of a metal.
func (s Scanner) ScanMetal(ctx context.Context, metal igold.MetalType) (Report, error) {
	return s.Scan(ctx, metal, igold.Categories(metal), igold.SkipURLs(metal))
}

// Scan walks the given categories in order. A single item failing never
// aborts the run: the item is logged, counted and skipped.
func (s Scanner) Scan(ctx context.Context, metal igold.MetalType, categories []igold.Category, skip []string) (Report, error) {
	ctx, span := tracer.Start(ctx, "Scan", otelMetal(metal))
	defer span.End()

	var report Report
	failedBefore := len(s.client.Failed())

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.scanCategory(ctx, metal, category, skip, &report)
	}

	// only the failures this run produced
	report.Failed = s.client.Failed()[failedBefore:]
	span.SetAttributes(
		attribute.Int("new_products", report.NewProducts),
		attribute.Int("prices_written", report.PricesWritten),
		attribute.Int("failed", len(report.Failed)),
	)
	slog.InfoContext(ctx, "scan complete",
		"metal", metal,
		"new_products", report.NewProducts,
		"prices_written", report.PricesWritten,
		"failed", len(report.Failed))
	return report, nil
}

func (s Scanner) scanCategory(ctx context.Context, metal igold.MetalType, category igold.Category, skip []string, report *Report) {
	ctx, span := tracer.Start(ctx, "scanCategory", otelMetal(metal))
	defer span.End()
	span.SetAttributes(attribute.String("category", category.Path))

	doc, err := s.client.FetchDocument(ctx, category.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "skipping category", "category", category.Path, "err", err)
		return
	}

	prices := igold.ExtractCategoryPrices(doc)
	slog.DebugContext(ctx, "extracted category prices",
		"category", category.Path, "count", len(prices))

	now := time.Now()
	var entries []pricestore.PriceEntry

	for _, price := range prices {
		if skipUrl(price.Url, skip) {
			slog.DebugContext(ctx, "skipping filtered url", "url", price.Url)
			continue
		}

		exists, err := s.store.Exists(ctx, price.Url, string(metal))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.WarnContext(ctx, "existence check failed", "url", price.Url, "err", err)
			continue
		}
		if !exists {
			if err := s.materialize(ctx, metal, category, price.Url); err != nil {
				slog.WarnContext(ctx, "failed to materialize product", "url", price.Url, "err", err)
				continue
			}
			report.NewProducts++
		}

		entries = append(entries, pricestore.PriceEntry{
			Url:          price.Url,
			SellPriceEur: price.SellPrice,
			BuyPriceEur:  price.BuyPrice,
			Timestamp:    now,
		})
	}

	written, err := s.store.AppendPricesBatch(ctx, string(metal), entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to append category prices",
			"category", category.Path, "err", err)
		return
	}
	report.PricesWritten += written
}

// materialize fetches a product's detail page once and creates its row.
// Later scans only ever touch the category listing again.
func (s Scanner) materialize(ctx context.Context, metal igold.MetalType, category igold.Category, url string) error {
	ctx, span := tracer.Start(ctx, "materialize", otelMetal(metal))
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	slog.InfoContext(ctx, "new product found", "url", url)

	doc, err := s.client.FetchDocument(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	attrs, err := igold.ExtractProduct(doc, url, metal)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if attrs.ProductType == igold.ProductUnknown && category.Hint != igold.ProductUnknown {
		attrs.ProductType = category.Hint
	}

	s.warnSimilarNames(ctx, metal, attrs.Name)

	_, err = s.store.UpsertProduct(ctx, pricestore.Product{
		Name:           attrs.Name,
		Url:            attrs.Url,
		MetalType:      string(attrs.MetalType),
		ProductType:    string(attrs.ProductType),
		WeightG:        optToPtr(attrs.WeightG),
		PurityPerMille: optToPtr(attrs.PurityPerMille),
		FineMetalG:     optToPtr(attrs.FineMetalG),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// warnSimilarNames flags existing products whose name is nearly
// identical to a freshly materialized one. The shop occasionally renames
// listings, which forks the (name, metal) identity.
func (s Scanner) warnSimilarNames(ctx context.Context, metal igold.MetalType, name string) {
	existing, err := s.store.Products(ctx, string(metal))
	if err != nil {
		slog.WarnContext(ctx, "could not list products for similarity check", "err", err)
		return
	}

	normalized := bgtext.NormalizeName(name)
	for _, product := range existing {
		if product.Name == name {
			continue
		}
		similarity := matchr.JaroWinkler(normalized, bgtext.NormalizeName(product.Name), false)
		if similarity >= nameSimilarityHint {
			slog.WarnContext(ctx, "new product name is suspiciously close to an existing one",
				"new", name, "existing", product.Name, "similarity", similarity)
		}
	}
}

func skipUrl(url string, skip []string) bool {
	for _, s := range skip {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

func optToPtr(v igold.OptFloat) *float64 {
	if !v.Ok {
		return nil
	}
	f := v.Value
	return &f
}

func otelMetal(metal igold.MetalType) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("metal", string(metal)))
}
