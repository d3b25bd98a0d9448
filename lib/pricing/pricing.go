// Package pricing holds the arithmetic contracts shared by the scraper,
// the price store and the reporting surfaces. Everything here is pure and
// must stay bit-reproducible: rounding is half-up to 2 decimal places.
package pricing

import "math"

// GramsPerTroyOunce converts troy-ounce quotes to grams.
const GramsPerTroyOunce = 31.1035

// Round2 rounds half-up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// FineMetal returns the fine metal content in grams derived from total
// weight and per-mille purity. The second return is false when either
// input is missing or non-positive.
func FineMetal(weightG, purityPerMille float64) (float64, bool) {
	if weightG <= 0 || purityPerMille <= 0 {
		return 0, false
	}
	return weightG * (purityPerMille / 1000), true
}

// PricePerGram returns the sell price per gram of fine metal, rounded to
// 2 decimals. False when the price or the fine content is non-positive.
func PricePerGram(sell, fineMetalG float64) (float64, bool) {
	if sell <= 0 || fineMetalG <= 0 {
		return 0, false
	}
	return Round2(sell / fineMetalG), true
}

// SpreadPct returns the bid-ask spread percentage ((sell-buy)/sell*100)
// rounded to 2 decimals. False when sell is non-positive or buy is
// negative.
func SpreadPct(buy, sell float64) (float64, bool) {
	if sell <= 0 || buy < 0 {
		return 0, false
	}
	return Round2((sell - buy) / sell * 100), true
}
