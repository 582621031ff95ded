package model

import "sort"

// IndexField is one note field in the full-text index. Higher weights rank
// matches in that field above matches elsewhere.
type IndexField struct {
	Field  string
	Weight int
}

type SearchIndex struct {
	Language string
	Fields   []IndexField
}

// DefaultSearchIndex covers subject, subHeader and content weighted 10/5/1.
var DefaultSearchIndex = SearchIndex{
	Language: "english",
	Fields: []IndexField{
		{Field: "subject", Weight: 10},
		{Field: "subHeader", Weight: 5},
		{Field: "content", Weight: 1},
	},
}

// Ranked returns the fields ordered from heaviest to lightest. Ties keep
// their declared order.
func (idx SearchIndex) Ranked() []IndexField {
	out := append([]IndexField(nil), idx.Fields...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// MaxWeight is the largest field weight, or 0 for an empty index.
func (idx SearchIndex) MaxWeight() int {
	maxW := 0
	for _, f := range idx.Fields {
		if f.Weight > maxW {
			maxW = f.Weight
		}
	}
	return maxW
}
