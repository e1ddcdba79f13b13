package domain

// LineItem is one cart or wishlist row. Quantity travels as text.
type LineItem struct {
	ProductID string `json:"_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"qty,string"`
}

// LineKey identifies a logical line: two items with the same key are one line.
type LineKey struct {
	ProductID string `json:"productId" form:"productId"`
	Size      string `json:"size" form:"size"`
	Color     string `json:"color" form:"color"`
}

// Key returns the deduplication key of the item.
func (li LineItem) Key() LineKey {
	return LineKey{ProductID: li.ProductID, Size: li.Size, Color: li.Color}
}
