package upcoming

// ItemFilter restricts the feed to a set of item ids. A nil filter admits
// every item.
type ItemFilter map[int64]struct{}

func NewItemFilter(itemIDs ...int64) ItemFilter {
	if len(itemIDs) == 0 {
		return nil
	}
	f := make(ItemFilter, len(itemIDs))
	for _, id := range itemIDs {
		f[id] = struct{}{}
	}
	return f
}

func (f ItemFilter) Allows(itemID int64) bool {
	if f == nil {
		return true
	}
	_, ok := f[itemID]
	return ok
}
