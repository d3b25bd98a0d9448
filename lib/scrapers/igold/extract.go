package igold

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"igold-backend/lib/bgtext"
)

// detail panel labels as they appear on product pages
const (
	labelWeight     = "Тегло"
	labelPurity     = "Проба"
	labelFineGold   = "Чисто злато"
	labelFineSilver = "Чисто сребро"
)

// ExtractProduct reads a full product page. A missing title is a hard
// failure; every other field degrades to its absent state.
func ExtractProduct(doc *goquery.Document, pageURL string, metal MetalType) (Attributes, error) {
	title := bgtext.NormalizeSpace(doc.Find("main h1").First().Text())
	if title == "" {
		return Attributes{}, &ExtractionError{Url: pageURL, Reason: "no title"}
	}

	attrs := Attributes{
		Name:        title,
		Url:         RelativeURL(pageURL),
		MetalType:   metal,
		ProductType: DetectProductType(title),
	}

	attrs.SellPrice, attrs.BuyPrice = extractPrices(doc)

	details := extractDetails(doc)
	attrs.WeightG = parseWeight(details[labelWeight])
	attrs.PurityPerMille = parsePurity(details[labelPurity])
	if !attrs.PurityPerMille.Ok {
		attrs.PurityPerMille = DefaultPurity(metal, attrs.ProductType, title)
	}

	fineLabel := labelFineGold
	if metal == MetalSilver {
		fineLabel = labelFineSilver
	}
	attrs.FineMetalG = parseWeight(details[fineLabel])
	if !attrs.FineMetalG.Ok && attrs.WeightG.Ok && attrs.PurityPerMille.Ok {
		attrs.FineMetalG = Some(attrs.WeightG.Value * attrs.PurityPerMille.Value / 1000)
	}

	return attrs, nil
}

// extractPrices reads the sell/buy table on a product page. The site
// renders sell on the first row and buy on the fourth.
func extractPrices(doc *goquery.Document) (sell, buy OptFloat) {
	rows := doc.Find("regular-product table tbody tr")
	sell = parsePrice(rows.Eq(0).Find("td").Eq(1).Find("span").First().Text())
	buy = parsePrice(rows.Eq(3).Find("td").Eq(1).Find("span").First().Text())
	return sell, buy
}

// extractDetails reads the label:value panel. Lines split on the first
// colon only, values may contain colons of their own.
func extractDetails(doc *goquery.Document) map[string]string {
	details := map[string]string{}
	doc.Find("div.memberheader__meta.effect p").Each(func(_ int, p *goquery.Selection) {
		key, value, ok := bgtext.SplitDetailLine(p.Text())
		if ok {
			details[key] = value
		}
	})
	return details
}

// ExtractCategoryPrices reads the lightweight (url, sell, buy) triples off
// a category listing page. Items the shop does not currently sell
// (sell <= 0) are dropped.
func ExtractCategoryPrices(doc *goquery.Document) []CategoryPrice {
	var prices []CategoryPrice

	doc.Find("li.kv__member-item").Each(func(_ int, item *goquery.Selection) {
		if item.HasClass("product-list-title") {
			return
		}

		href, ok := item.Find("dd.kv__member-name a").First().Attr("href")
		if !ok || href == "" || href == "#" {
			return
		}

		buy := parsePrice(item.
			Find(`dt[class*="kv__member-cat-left"] span[class*="catE-"], dt[class*="kv__member-cat-left"] span[class*="cat2E-"]`).
			First().Text())
		sell := parsePrice(item.
			Find(`dt[class*="kv__member-cat-right"] span[class*="catE-"]`).
			First().Text())

		if !sell.Ok || sell.Value <= 0 {
			return
		}

		prices = append(prices, CategoryPrice{
			Url:       RelativeURL(href),
			SellPrice: sell.Value,
			BuyPrice:  buy.Value,
		})
	})

	return prices
}

var (
	coinKeywords = []string{"монета", "монети"}
	barKeywords  = []string{"кюлче"}
)

// DetectProductType guesses bar vs coin from localized title keywords.
func DetectProductType(title string) ProductType {
	if bgtext.MatchKeyword(title, coinKeywords) {
		return ProductCoin
	}
	if bgtext.MatchKeyword(title, barKeywords) {
		return ProductBar
	}
	return ProductUnknown
}

// RelativeURL normalizes an absolute product url to its site-relative
// path. The store keys urls this way so the site moving hosts does not
// duplicate products.
func RelativeURL(link string) string {
	if !strings.HasPrefix(link, "http") {
		return link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	return parsed.Path
}

func parsePrice(s string) OptFloat {
	v, ok := bgtext.ParseFloat(s)
	if !ok {
		return OptFloat{}
	}
	return Some(v)
}

// parseWeight handles values like "10,00 гр." and "1 унция (31,10 гр.)".
// Troy-ounce quantities convert to grams.
func parseWeight(s string) OptFloat {
	if s == "" {
		return OptFloat{}
	}
	// prefer the parenthesized gram figure when both units are shown
	if open := strings.Index(s, "("); open >= 0 {
		if end := strings.Index(s[open:], ")"); end > 0 {
			inner := s[open+1 : open+end]
			if strings.Contains(inner, "гр") {
				s = inner
			}
		}
	}
	isOunce := strings.Contains(strings.ToLower(s), "унц") ||
		strings.Contains(strings.ToLower(s), "oz")

	v, ok := bgtext.ParseFloat(s)
	if !ok || v <= 0 {
		return OptFloat{}
	}
	if isOunce {
		v *= 31.1035
	}
	return Some(v)
}

// parsePurity handles "999,9/1000" and plain "999,9" forms.
func parsePurity(s string) OptFloat {
	if s == "" {
		return OptFloat{}
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	v, ok := bgtext.ParseFloat(s)
	if !ok || v <= 0 || v > 1000 {
		return OptFloat{}
	}
	return Some(v)
}
