package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/roster"
)

// Search creates a character group from every admissible character on the
// account that owns name.
func (s *Service) Search(ctx context.Context, name string) (*model.CharacterGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("enter a character name")
	}

	fetched, err := s.roster.Siblings(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up %q: %w", name, err)
	}
	if len(fetched) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrCharacterNotFound)
	}

	chars := roster.Normalize(fetched)
	if len(chars) == 0 {
		return nil, invalid("no character on %q's account has item level %d or higher", name, roster.MinItemLevel)
	}
	rep, _ := roster.Representative(chars)

	g, err := s.groups.Create(ctx, rep.CharacterName, s.now(), chars)
	if err != nil {
		return nil, err
	}
	s.state.addGroup(*g)
	s.logger.Info("character group created", "group_id", g.ID, "representative", g.RepresentativeName, "characters", len(chars))
	return g, nil
}

// Refresh re-fetches a group's roster and merges it into the saved order.
// Concurrent refreshes of one group share a single fetch, which outlives the
// caller that started it so waiters are not cancelled with it.
func (s *Service) Refresh(ctx context.Context, groupID string) (*model.CharacterGroup, error) {
	ch := s.refreshes.DoChan(groupID, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(shared, groupID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		g := res.Val.(*model.CharacterGroup).Clone()
		return &g, nil
	}
}

func (s *Service) refresh(ctx context.Context, groupID string) (*model.CharacterGroup, error) {
	unlock := s.locks.Lock(groupKey(groupID))
	defer unlock()

	g, ok := s.state.Group(groupID)
	if !ok {
		return nil, notFound("character group", groupID)
	}

	fetched, err := s.roster.Siblings(ctx, g.RepresentativeName)
	if err != nil {
		return nil, fmt.Errorf("refresh %q: %w", g.RepresentativeName, err)
	}
	merged := roster.Reconcile(g.Characters, fetched)
	if len(merged) == 0 {
		return nil, invalid("refresh of %q returned no admissible characters; keeping the saved roster", g.RepresentativeName)
	}
	rep, _ := roster.Representative(merged)

	if err := s.groups.UpdateCharacters(ctx, groupID, rep.CharacterName, merged); err != nil {
		return nil, err
	}
	g.Characters = merged
	g.RepresentativeName = rep.CharacterName
	s.state.updateGroup(groupID, func(cur *model.CharacterGroup) {
		cur.Characters = g.Clone().Characters
		cur.RepresentativeName = rep.CharacterName
	})

	s.logger.Info("character group refreshed", "group_id", groupID, "characters", len(merged))
	return &g, nil
}

// RefreshAll refreshes every group in turn and returns the failures by group id.
func (s *Service) RefreshAll(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, g := range s.state.Groups() {
		if ctx.Err() != nil {
			failures[g.ID] = ctx.Err()
			continue
		}
		if _, err := s.Refresh(ctx, g.ID); err != nil {
			failures[g.ID] = err
		}
	}
	return failures
}

// ReorderCharacters stores a user defined character order. keys must list
// every character of the group exactly once.
func (s *Service) ReorderCharacters(ctx context.Context, groupID string, keys []string) Result[model.CharacterGroup] {
	unlock := s.locks.Lock(groupKey(groupID))
	defer unlock()
	return s.reorderCharacters(ctx, groupID, keys)
}

// MoveCharacter shifts one character by delta positions, clamped to the ends
// of the list.
func (s *Service) MoveCharacter(ctx context.Context, groupID, key string, delta int) Result[model.CharacterGroup] {
	unlock := s.locks.Lock(groupKey(groupID))
	defer unlock()

	g, ok := s.state.Group(groupID)
	if !ok {
		return failed(g, notFound("character group", groupID))
	}
	keys := g.Keys()
	from := -1
	for i, k := range keys {
		if k == key {
			from = i
			break
		}
	}
	if from < 0 {
		return failed(g, notFound("character", key))
	}
	to := min(max(from+delta, 0), len(keys)-1)
	if to == from {
		return unchanged(g)
	}

	keys = slices.Delete(keys, from, from+1)
	keys = slices.Insert(keys, to, key)
	return s.reorderCharacters(ctx, groupID, keys)
}

func (s *Service) reorderCharacters(ctx context.Context, groupID string, keys []string) Result[model.CharacterGroup] {
	prev, ok := s.state.Group(groupID)
	if !ok {
		return failed(prev, notFound("character group", groupID))
	}
	if err := checkPermutation(prev.Keys(), keys); err != nil {
		return failed(prev, err)
	}

	byKey := make(map[string]model.Character, len(prev.Characters))
	for _, c := range prev.Characters {
		byKey[c.Key()] = c
	}
	next := prev.Clone()
	for i, k := range keys {
		c := byKey[k]
		c.DisplayOrder = model.IntPtr(i)
		next.Characters[i] = c
	}

	s.state.updateGroup(groupID, func(cur *model.CharacterGroup) { cur.Characters = next.Characters })
	if err := s.groups.UpdateCharacters(ctx, groupID, next.RepresentativeName, next.Characters); err != nil {
		s.state.updateGroup(groupID, func(cur *model.CharacterGroup) { cur.Characters = prev.Characters })
		s.logger.Warn("character order rolled back", "group_id", groupID, "error", err)
		return failed(prev, err)
	}
	return applied(prev, next)
}

// ReorderGroups stores a user defined order over all character groups.
func (s *Service) ReorderGroups(ctx context.Context, ids []string) Result[[]model.CharacterGroup] {
	prev := s.state.Groups()
	current := make([]string, len(prev))
	for i, g := range prev {
		current[i] = g.ID
	}
	if err := checkPermutation(current, ids); err != nil {
		return failed(prev, err)
	}

	before := orderPtrs(prev, func(g model.CharacterGroup) string { return g.ID }, func(g model.CharacterGroup) *int { return g.Order })
	s.state.setGroupOrders(sequentialOrders(ids))
	if err := s.groups.UpdateSortOrder(ctx, ids); err != nil {
		s.state.setGroupOrders(before)
		s.logger.Warn("group order rolled back", "error", err)
		return failed(prev, err)
	}
	return applied(prev, s.state.Groups())
}

// DeleteGroup removes a group and its expedition progress.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	unlock := s.locks.Lock(groupKey(groupID))
	defer unlock()

	if _, ok := s.state.Group(groupID); !ok {
		return notFound("character group", groupID)
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return err
	}
	if err := s.progress.DeleteExpeditionState(ctx, groupID); err != nil {
		s.logger.Error("orphaned expedition state", "group_id", groupID, "error", err)
	}
	s.state.removeGroup(groupID)
	s.logger.Info("character group deleted", "group_id", groupID)
	return nil
}
