package entity

// PairwiseRule is read-only reference data: a known recyclability outcome for
// an unordered (ItemType, MaterialType) label pair. The table is conceptually
// symmetric but stored asymmetrically, so lookups probe both directions.
type PairwiseRule struct {
	ItemType     string `json:"item_type"`
	MaterialType string `json:"material_type"`

	Recyclable   bool   `json:"recyclable"`
	BinColor     string `json:"bin_color,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}
