package igold

// Category listing paths per metal. Gold splits across bar and coin
// listings; every silver product lives on the single /srebro page.
var (
	GoldCategories = []Category{
		{Path: "/zlatni-kyulcheta-investitsionni", Hint: ProductBar},
		{Path: "/kyulcheta-s-numizmatichen-potenitzial", Hint: ProductBar},
		{Path: "/zlatni-numizmatichni-kyulcheta", Hint: ProductBar},
		{Path: "/zlatni-kyulcheta-za-podarak", Hint: ProductBar},
		{Path: "/moderni-investitzionni-moneti", Hint: ProductCoin},
		{Path: "/istoricheski-investitzionni-moneti", Hint: ProductCoin},
		{Path: "/zlatni-moneti-s-numizmatichen-potentzial", Hint: ProductCoin},
		{Path: "/moderni-zlatni-moneti-za-podarak", Hint: ProductCoin},
		{Path: "/moderni-numizmatichni-moneti", Hint: ProductCoin},
		{Path: "/istoricheski-numizmatichni-zlatni-moneti", Hint: ProductCoin},
	}

	SilverCategories = []Category{
		{Path: "/srebro", Hint: ProductUnknown},
	}

	// damaged/illiquid goods listings, never tracked
	GoldSkipURLs = []string{
		"/nelikvidno-i-povredeno-zlato",
	}
)

// Categories returns the listing set for a metal.
func Categories(metal MetalType) []Category {
	if metal == MetalSilver {
		return SilverCategories
	}
	return GoldCategories
}

// SkipURLs returns the discovery skip-list for a metal.
func SkipURLs(metal MetalType) []string {
	if metal == MetalSilver {
		return nil
	}
	return GoldSkipURLs
}
