package fight

import "slices"

// ClampNotchLimit forces n into [MinNotchLimit, MaxNotchLimit].
func ClampNotchLimit(n int) int {
	return min(max(n, MinNotchLimit), MaxNotchLimit)
}

// NormalizeCharms walks ids in order and keeps each charm while the running
// cost stays within limit. The first charm that would exceed limit is still
// kept (overcharmed) if at least one notch was free and the total stays
// within limit+OvercharmAllowance; every later charm that does not fit
// within limit is dropped. Unknown and duplicate ids are dropped.
func NormalizeCharms(ids []string, limit int, catalog Catalog) []string {
	var (
		kept        []string
		used        int
		overcharmed bool
	)
	for _, id := range ids {
		if slices.Contains(kept, id) {
			continue
		}
		cost, ok := catalog.CharmCost(id)
		if !ok {
			continue
		}
		next := used + cost
		switch {
		case next <= limit && !overcharmed:
			kept = append(kept, id)
			used = next
		case !overcharmed && used < limit && next <= limit+OvercharmAllowance:
			kept = append(kept, id)
			used = next
			overcharmed = true
		}
	}
	return kept
}

// CharmCost sums the notch cost of ids. Unknown ids cost nothing.
func CharmCost(ids []string, catalog Catalog) int {
	total := 0
	for _, id := range ids {
		if cost, ok := catalog.CharmCost(id); ok {
			total += cost
		}
	}
	return total
}

// IsOvercharmed reports whether the build uses more notches than it has.
func IsOvercharmed(b Build, catalog Catalog) bool {
	return CharmCost(b.ActiveCharmIDs, catalog) > b.NotchLimit
}

// normalizeBuild clamps the notch limit and truncates the charm selection.
// It returns b unchanged (same slices) when it already satisfies both.
func normalizeBuild(b Build, catalog Catalog) Build {
	b.NotchLimit = ClampNotchLimit(b.NotchLimit)
	charms := NormalizeCharms(b.ActiveCharmIDs, b.NotchLimit, catalog)
	if !slices.Equal(charms, b.ActiveCharmIDs) {
		b.ActiveCharmIDs = charms
	}
	return b
}
