package model

import (
	"sort"
	"time"
)

type ItemType string

const (
	ItemTypeCheck   ItemType = "check"
	ItemTypeCounter ItemType = "counter"
)

// ParseItemType maps anything other than "counter" to ItemTypeCheck.
func ParseItemType(s string) ItemType {
	if ItemType(s) == ItemTypeCounter {
		return ItemTypeCounter
	}
	return ItemTypeCheck
}

type TodoItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	Order       *int      `json:"order"`
	Type        ItemType  `json:"type"`
	TargetCount *int      `json:"targetCount"`
}

// Normalize enforces the type invariants: unknown types become check items,
// and only counters with a positive target keep it.
func (i *TodoItem) Normalize() {
	i.Type = ParseItemType(string(i.Type))
	if i.Type != ItemTypeCounter || (i.TargetCount != nil && *i.TargetCount <= 0) {
		i.TargetCount = nil
	}
}

type TodoGroup struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	Order     *int       `json:"order"`
	Items     []TodoItem `json:"items"`
}

// Item returns the item with the given id.
func (g TodoGroup) Item(id string) (TodoItem, bool) {
	for _, it := range g.Items {
		if it.ID == id {
			return it, true
		}
	}
	return TodoItem{}, false
}

// Clone returns a deep copy of the group and its items.
func (g TodoGroup) Clone() TodoGroup {
	out := g
	out.Order = cloneInt(g.Order)
	out.Items = make([]TodoItem, len(g.Items))
	for i, it := range g.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

func (i TodoItem) Clone() TodoItem {
	i.Order = cloneInt(i.Order)
	i.TargetCount = cloneInt(i.TargetCount)
	return i
}

// Recency controls how entries without an explicit order are ranked.
type Recency int

const (
	NewestFirst Recency = iota
	OldestFirst
)

// lessByOrder ranks entries with an order first (ascending), then the rest by
// creation time in the requested direction.
func lessByOrder(ao, bo *int, at, bt time.Time, rec Recency) bool {
	switch {
	case ao != nil && bo != nil:
		return *ao < *bo
	case ao != nil:
		return true
	case bo != nil:
		return false
	}
	if rec == OldestFirst {
		return at.Before(bt)
	}
	return at.After(bt)
}

func SortCharacterGroups(groups []CharacterGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return lessByOrder(groups[i].Order, groups[j].Order, groups[i].CreatedAt, groups[j].CreatedAt, NewestFirst)
	})
}

func SortTodoGroups(groups []TodoGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return lessByOrder(groups[i].Order, groups[j].Order, groups[i].CreatedAt, groups[j].CreatedAt, NewestFirst)
	})
}

func SortTodoItems(items []TodoItem, rec Recency) {
	sort.SliceStable(items, func(i, j int) bool {
		return lessByOrder(items[i].Order, items[j].Order, items[i].CreatedAt, items[j].CreatedAt, rec)
	})
}
