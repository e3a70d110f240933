package roster

import (
	"sort"

	"github.com/dukerupert/dailyboard/internal/model"
)

// Normalize prepares a freshly fetched roster for its first save: admissible
// characters only, highest level first, display order 0..n-1.
func Normalize(incoming []model.Character) []model.Character {
	out := admit(incoming)
	sortByLevel(out)
	renumber(out)
	return out
}

// Reconcile merges a fresh roster into a saved, user ordered one. Characters
// still present keep their relative order and take the fresh record; new
// characters follow, highest level first; characters gone from the fresh
// roster or below the threshold are dropped. Display order is renumbered
// 0..n-1.
func Reconcile(existing, incoming []model.Character) []model.Character {
	fresh := admit(incoming)
	lookup := make(map[string]model.Character, len(fresh))
	arrival := make([]string, 0, len(fresh))
	for _, c := range fresh {
		k := c.Key()
		if _, dup := lookup[k]; !dup {
			arrival = append(arrival, k)
		}
		lookup[k] = c
	}

	saved := make([]model.Character, len(existing))
	copy(saved, existing)
	sort.SliceStable(saved, func(i, j int) bool {
		return orderOf(saved[i]) < orderOf(saved[j])
	})

	out := make([]model.Character, 0, len(lookup))
	for _, c := range saved {
		k := c.Key()
		f, ok := lookup[k]
		if !ok {
			continue
		}
		out = append(out, f)
		delete(lookup, k)
	}

	added := make([]model.Character, 0, len(lookup))
	for _, k := range arrival {
		if c, ok := lookup[k]; ok {
			added = append(added, c)
		}
	}
	sortByLevel(added)
	out = append(out, added...)

	renumber(out)
	return out
}

// Representative picks the highest level admissible character. Ties go to
// the first one in input order.
func Representative(chars []model.Character) (model.Character, bool) {
	var best model.Character
	bestLevel := -1.0
	found := false
	for _, c := range chars {
		lvl := ParseItemLevel(c.ItemAvgLevel)
		if lvl < MinItemLevel {
			continue
		}
		if !found || lvl > bestLevel {
			best, bestLevel, found = c, lvl, true
		}
	}
	return best, found
}

// SortForDisplay orders a stored list for rendering. If any character lacks
// a display order the whole list is re-ranked by level and renumbered.
func SortForDisplay(chars []model.Character) []model.Character {
	out := make([]model.Character, len(chars))
	copy(out, chars)

	missing := false
	for _, c := range out {
		if c.DisplayOrder == nil {
			missing = true
			break
		}
	}
	if missing {
		sortByLevel(out)
		renumber(out)
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].DisplayOrder < *out[j].DisplayOrder
	})
	return out
}

func orderOf(c model.Character) int {
	if c.DisplayOrder == nil {
		return 0
	}
	return *c.DisplayOrder
}

func sortByLevel(chars []model.Character) {
	sort.SliceStable(chars, func(i, j int) bool {
		return ParseItemLevel(chars[i].ItemAvgLevel) > ParseItemLevel(chars[j].ItemAvgLevel)
	})
}

func renumber(chars []model.Character) {
	for i := range chars {
		chars[i].DisplayOrder = model.IntPtr(i)
	}
}
