package bookstore

// baselineItemIDs are the items that exist on every deployment of the store.
var baselineItemIDs = [...]ItemID{1, 2, 3}

// BaselineItemIDs returns a copy of the fixed baseline set.
func BaselineItemIDs() []ItemID {
	ids := make([]ItemID, len(baselineItemIDs))
	copy(ids, baselineItemIDs[:])
	return ids
}

// ResolveItemIDs merges the baseline with every id that has cached metadata.
// The result is deduplicated and ascending. Zero ids are dropped.
func ResolveItemIDs(baseline []ItemID, metadata map[ItemID]ItemMetadata) []ItemID {
	seen := make(map[ItemID]struct{}, len(baseline)+len(metadata))
	ids := make([]ItemID, 0, len(baseline)+len(metadata))
	add := func(id ItemID) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range baseline {
		add(id)
	}
	for id := range metadata {
		add(id)
	}
	SortItemIDs(ids)
	return ids
}

// sameIDs reports whether two resolved sequences are equal.
func sameIDs(a, b []ItemID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// addedIDs returns the ids in next that are not in prev. Both must be sorted.
func addedIDs(prev, next []ItemID) []ItemID {
	var out []ItemID
	i := 0
	for _, id := range next {
		for i < len(prev) && prev[i] < id {
			i++
		}
		if i < len(prev) && prev[i] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
