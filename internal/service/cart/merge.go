package cart

import "storefront/internal/domain"

// Merge collapses lines sharing a key into one, summing quantities. Output order
// follows the first occurrence of each key. Merge never mutates items.
func Merge(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	index := make(map[domain.LineKey]int, len(items))
	for _, it := range items {
		k := it.Key()
		if i, ok := index[k]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}

func find(items []domain.LineItem, key domain.LineKey) int {
	for i, it := range items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}
