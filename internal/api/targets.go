package api

// macros are daily macronutrient targets in grams.
type macros struct {
	Fat          uint64
	Protein      uint64
	Carbohydrate uint64
}

// targetMacros derives macro targets from a calorie target using the simple
// 50/30/20 shortcut.
func targetMacros(calories uint64) macros {
	return macros{
		Fat:          calories / 8,
		Protein:      calories / 12,
		Carbohydrate: calories / 45,
	}
}
