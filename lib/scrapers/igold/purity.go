package igold

import "strings"

// Known standardized finenesses, keyed by title keyword. This is a
// heuristic fallback of last resort for pages that omit the purity line:
// the mapping is neither complete nor guaranteed current, and an explicit
// stated purity always wins.
var goldCoinPurities = []struct {
	keyword string
	purity  float64
}{
	{"дукат", 986},
	{"соверен", 916.7},
	{"наполеон", 900},
	{"кленов лист", 999.9},
	{"maple", 999.9},
	{"филхармония", 999.9},
	{"британия", 999.9},
	{"кенгуру", 999.9},
	{"панда", 999},
	{"орел", 916.7},
	{"eagle", 916.7},
	{"кругерранд", 916.7},
	{"krugerrand", 916.7},
}

// DefaultPurity returns the fallback purity for a product whose page does
// not state one. Gold products without a recognized coin name get no
// default at all.
func DefaultPurity(metal MetalType, productType ProductType, title string) OptFloat {
	if metal == MetalSilver {
		if productType == ProductBar {
			return Some(999.9)
		}
		return Some(999)
	}

	if productType == ProductCoin {
		lower := strings.ToLower(title)
		for _, entry := range goldCoinPurities {
			if strings.Contains(lower, entry.keyword) {
				return Some(entry.purity)
			}
		}
	}
	return OptFloat{}
}
