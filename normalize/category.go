package normalize

import "strings"

// blockSeries maps a block label to its default category before the
// atomic-number overrides apply.
var blockSeries = map[string]string{
	"s-block": "s-block element",
	"p-block": "p-block element",
	"d-block": "transition metal",
	"f-block": "lanthanide/actinide",
}

var categoryOverrides = map[int]string{
	1: "nonmetal",
}

func init() {
	for _, z := range []int{3, 11, 19, 37, 55, 87} {
		categoryOverrides[z] = "alkali metal"
	}
	for _, z := range []int{4, 12, 20, 38, 56, 88} {
		categoryOverrides[z] = "alkaline earth metal"
	}
	for _, z := range []int{2, 10, 18, 36, 54, 86, 118} {
		categoryOverrides[z] = "noble gas"
	}
	for _, z := range []int{5, 14, 32, 33, 51, 52, 84} {
		categoryOverrides[z] = "metalloid"
	}
	for _, z := range []int{6, 7, 8, 15, 16, 34} {
		categoryOverrides[z] = "nonmetal"
	}
	for _, z := range []int{9, 17, 35, 53, 85, 117} {
		categoryOverrides[z] = "halogen"
	}
	for z := 57; z <= 71; z++ {
		categoryOverrides[z] = "lanthanide"
	}
	for z := 89; z <= 103; z++ {
		categoryOverrides[z] = "actinide"
	}
}

// deriveCategory classifies an element from its block label with exact
// atomic-number overrides. Pure and total: unknown inputs classify as
// "unknown", never an error.
func deriveCategory(blockLabel string, atomicNumber int) string {
	if c, ok := categoryOverrides[atomicNumber]; ok {
		return c
	}
	label := strings.ToLower(strings.TrimSpace(blockLabel))
	if c, ok := blockSeries[label]; ok {
		return c
	}
	if label != "" {
		return label
	}
	return "unknown"
}
