package spotprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"igold-backend/lib/pricing"
	"igold-backend/lib/telemetry"
)

var tracer = otel.Tracer("services/spotprice")

const (
	SymbolGold   = "XAU"
	SymbolSilver = "XAG"
)

// the profile with the tightest spread; quotes fall back to the first
// available profile when the feed omits it
const preferredProfile = "elite"

var ErrNoApiBaseUrl = errors.New("spot price api base url is not configured")

type Config struct {
	ApiBaseUrl string        `json:"apiBaseUrl"`
	Timeout    time.Duration `json:"timeout"`
}

// Quote is a live spot quote in EUR, both per troy ounce as delivered by
// the feed and converted per gram.
type Quote struct {
	Symbol        string
	SpreadProfile string
	BidEurOz      float64
	AskEurOz      float64
	MidEurOz      float64
	BidEurG       float64
	AskEurG       float64
	MidEurG       float64
	Time          time.Time
}

type spreadProfilePrice struct {
	SpreadProfile string  `json:"spreadProfile"`
	BidSpread     float64 `json:"bidSpread"`
	AskSpread     float64 `json:"askSpread"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
}

type platformQuote struct {
	Ts                  int64                `json:"ts"`
	SpreadProfilePrices []spreadProfilePrice `json:"spreadProfilePrices"`
}

type Service struct {
	client *resty.Client
}

// NewService fails when no api base url is configured; the caller treats
// that as a startup error.
func NewService(config Config) (Service, error) {
	if config.ApiBaseUrl == "" {
		return Service{}, ErrNoApiBaseUrl
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = time.Second * 10
	}

	client := resty.New()
	client.SetBaseURL(config.ApiBaseUrl)
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "services/spotprice")

	return Service{client: client}, nil
}

// Fetch gets the live EUR quote for a metal symbol (XAU or XAG).
func (s Service) Fetch(ctx context.Context, symbol string) (Quote, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := s.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/EUR", symbol))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Quote{}, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("spot price api returned %d for %s", res.StatusCode(), symbol)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Quote{}, err
	}

	var platforms []platformQuote
	if err := json.Unmarshal(res.Body(), &platforms); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Quote{}, fmt.Errorf("decode spot price response for %s: %w", symbol, err)
	}
	if len(platforms) == 0 {
		return Quote{}, fmt.Errorf("empty spot price response for %s", symbol)
	}

	platform := platforms[0]
	if len(platform.SpreadProfilePrices) == 0 {
		return Quote{}, fmt.Errorf("no spread profiles for %s", symbol)
	}

	price := platform.SpreadProfilePrices[0]
	for _, profile := range platform.SpreadProfilePrices {
		if profile.SpreadProfile == preferredProfile {
			price = profile
			break
		}
	}

	at := time.Now()
	if platform.Ts > 0 {
		at = time.UnixMilli(platform.Ts)
	}

	mid := (price.Bid + price.Ask) / 2
	quote := Quote{
		Symbol:        symbol,
		SpreadProfile: price.SpreadProfile,
		BidEurOz:      pricing.Round2(price.Bid),
		AskEurOz:      pricing.Round2(price.Ask),
		MidEurOz:      pricing.Round2(mid),
		BidEurG:       pricing.Round2(price.Bid / pricing.GramsPerTroyOunce),
		AskEurG:       pricing.Round2(price.Ask / pricing.GramsPerTroyOunce),
		MidEurG:       pricing.Round2(mid / pricing.GramsPerTroyOunce),
		Time:          at,
	}

	slog.DebugContext(ctx, "fetched spot quote",
		"symbol", symbol, "mid_eur_g", quote.MidEurG, "profile", quote.SpreadProfile)
	return quote, nil
}
