package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Progress is the completion value of one todo item: a flag for check items,
// a non-negative count for counters.
type Progress struct {
	Type  ItemType
	Done  bool
	Count int
}

func Checked(done bool) Progress {
	return Progress{Type: ItemTypeCheck, Done: done}
}

// Counted does not clamp; negative counts are rejected when a value is saved.
func Counted(n int) Progress {
	return Progress{Type: ItemTypeCounter, Count: n}
}

// maxCount bounds decoded counter values.
const maxCount = math.MaxInt32

// Complete reports whether the item counts as finished. Counters without a
// target only track a number and are never complete.
func (p Progress) Complete(item TodoItem) bool {
	if item.Type == ItemTypeCounter {
		return item.TargetCount != nil && p.Count >= *item.TargetCount
	}
	return p.Done
}

func (p Progress) MarshalJSON() ([]byte, error) {
	if p.Type == ItemTypeCounter {
		return json.Marshal(p.Count)
	}
	return json.Marshal(p.Done)
}

func (p *Progress) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Progress{}
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*p = Checked(data[0] == 't')
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("progress must be a boolean or a number: %w", err)
	}
	if n != math.Trunc(n) {
		return fmt.Errorf("progress count %s is not a whole number", data)
	}
	if math.Abs(n) > maxCount {
		return fmt.Errorf("progress count %s is out of range", data)
	}
	*p = Counted(int(n))
	return nil
}

// Selection says which todo groups apply to a character. The zero value
// selects every group; SpecificGroups selects exactly the listed ones, which
// may be none.
type Selection struct {
	specific bool
	groups   []string
}

func AllGroups() Selection {
	return Selection{}
}

// SpecificGroups de-duplicates ids, keeping first occurrences.
func SpecificGroups(ids ...string) Selection {
	seen := make(map[string]struct{}, len(ids))
	groups := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		groups = append(groups, id)
	}
	return Selection{specific: true, groups: groups}
}

func (s Selection) IsAll() bool {
	return !s.specific
}

// Groups returns the explicit ids, or nil for AllGroups.
func (s Selection) Groups() []string {
	if !s.specific {
		return nil
	}
	return append([]string(nil), s.groups...)
}

func (s Selection) Includes(groupID string) bool {
	if !s.specific {
		return true
	}
	for _, id := range s.groups {
		if id == groupID {
			return true
		}
	}
	return false
}

// Resolve filters the catalog down to the selected groups, keeping catalog order.
func (s Selection) Resolve(catalog []TodoGroup) []TodoGroup {
	out := make([]TodoGroup, 0, len(catalog))
	for _, g := range catalog {
		if s.Includes(g.ID) {
			out = append(out, g)
		}
	}
	return out
}

func (s Selection) Equal(o Selection) bool {
	if s.specific != o.specific || len(s.groups) != len(o.groups) {
		return false
	}
	for i := range s.groups {
		if s.groups[i] != o.groups[i] {
			return false
		}
	}
	return true
}

const (
	selectionModeAll      = "all"
	selectionModeSpecific = "specific"
)

type selectionDoc struct {
	Mode   string   `json:"mode"`
	Groups []string `json:"groups,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.specific {
		return json.Marshal(selectionDoc{Mode: selectionModeAll})
	}
	return json.Marshal(selectionDoc{Mode: selectionModeSpecific, Groups: s.groups})
}

// UnmarshalJSON accepts the tagged form as well as the legacy encoding where
// null means every group and a list means exactly those groups.
func (s *Selection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = AllGroups()
		return nil
	}
	if data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decode selection list: %w", err)
		}
		*s = SpecificGroups(ids...)
		return nil
	}
	var doc selectionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode selection: %w", err)
	}
	switch doc.Mode {
	case selectionModeSpecific:
		*s = SpecificGroups(doc.Groups...)
	case selectionModeAll, "":
		*s = AllGroups()
	default:
		return fmt.Errorf("unknown selection mode %q", doc.Mode)
	}
	return nil
}

// CharacterTodoState is the per-character checklist state.
type CharacterTodoState struct {
	Selection Selection                      `json:"selection"`
	Completed map[string]map[string]Progress `json:"completed"`
}

func (s CharacterTodoState) Progress(groupID, itemID string) (Progress, bool) {
	p, ok := s.Completed[groupID][itemID]
	return p, ok
}

func (s *CharacterTodoState) SetProgress(groupID, itemID string, p Progress) {
	if s.Completed == nil {
		s.Completed = make(map[string]map[string]Progress)
	}
	if s.Completed[groupID] == nil {
		s.Completed[groupID] = make(map[string]Progress)
	}
	s.Completed[groupID][itemID] = p
}

// ExpeditionState is the account-wide checklist state of one character group.
type ExpeditionState struct {
	Completed map[string]Progress `json:"completed"`
}

func (s *ExpeditionState) SetProgress(itemID string, p Progress) {
	if s.Completed == nil {
		s.Completed = make(map[string]Progress)
	}
	s.Completed[itemID] = p
}

// Clone returns a deep copy of the completion maps.
func (s CharacterTodoState) Clone() CharacterTodoState {
	out := CharacterTodoState{Selection: s.Selection}
	if s.Completed != nil {
		out.Completed = make(map[string]map[string]Progress, len(s.Completed))
		for g, items := range s.Completed {
			m := make(map[string]Progress, len(items))
			for id, p := range items {
				m[id] = p
			}
			out.Completed[g] = m
		}
	}
	return out
}

func (s ExpeditionState) Clone() ExpeditionState {
	out := ExpeditionState{}
	if s.Completed != nil {
		out.Completed = make(map[string]Progress, len(s.Completed))
		for id, p := range s.Completed {
			out.Completed[id] = p
		}
	}
	return out
}

// EmptyProgress is the value of an item nobody has touched yet.
func EmptyProgress(item TodoItem) Progress {
	if item.Type == ItemTypeCounter {
		return Counted(0)
	}
	return Checked(false)
}
