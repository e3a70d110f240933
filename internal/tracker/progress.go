package tracker

import (
	"context"

	"github.com/dukerupert/dailyboard/internal/model"
)

// SetSelection chooses which todo groups apply to a character. Completion
// values are kept whatever the selection.
func (s *Service) SetSelection(ctx context.Context, charKey string, sel model.Selection) Result[model.CharacterTodoState] {
	unlock := s.locks.Lock(characterKey(charKey))
	defer unlock()

	prev := s.state.CharacterState(charKey)
	if _, ok := s.state.Character(charKey); !ok {
		return failed(prev, notFound("character", charKey))
	}
	for _, id := range sel.Groups() {
		if _, ok := s.state.TodoGroup(id); !ok {
			return failed(prev, invalid("unknown todo group %q", id))
		}
	}
	if prev.Selection.Equal(sel) {
		return unchanged(prev)
	}

	next := prev.Clone()
	next.Selection = sel
	s.state.setCharacterState(charKey, next)
	if err := s.progress.SetSelection(ctx, charKey, sel); err != nil {
		s.state.setCharacterState(charKey, prev)
		s.logger.Warn("selection rolled back", "character", charKey, "error", err)
		return failed(prev, err)
	}
	return applied(prev, next)
}

// ClearSelection goes back to showing every todo group.
func (s *Service) ClearSelection(ctx context.Context, charKey string) Result[model.CharacterTodoState] {
	return s.SetSelection(ctx, charKey, model.AllGroups())
}

// SetProgress records a completion value for one of a character's todos.
func (s *Service) SetProgress(ctx context.Context, charKey, groupID, itemID string, p model.Progress) Result[model.Progress] {
	unlock := s.locks.Lock(characterKey(charKey))
	defer unlock()
	return s.setProgress(ctx, charKey, groupID, itemID, func(model.TodoItem, model.Progress) (model.Progress, error) {
		return p, nil
	})
}

// IncrementProgress adds delta to a counter item, never going below zero.
func (s *Service) IncrementProgress(ctx context.Context, charKey, groupID, itemID string, delta int) Result[model.Progress] {
	unlock := s.locks.Lock(characterKey(charKey))
	defer unlock()
	return s.setProgress(ctx, charKey, groupID, itemID, increment(delta))
}

func (s *Service) setProgress(ctx context.Context, charKey, groupID, itemID string, next func(model.TodoItem, model.Progress) (model.Progress, error)) Result[model.Progress] {
	prevState := s.state.CharacterState(charKey)
	if _, ok := s.state.Character(charKey); !ok {
		return failed(model.Progress{}, notFound("character", charKey))
	}
	g, ok := s.state.TodoGroup(groupID)
	if !ok {
		return failed(model.Progress{}, notFound("todo group", groupID))
	}
	item, ok := g.Item(itemID)
	if !ok {
		return failed(model.Progress{}, notFound("todo item", itemID))
	}

	prev, ok := prevState.Progress(groupID, itemID)
	if !ok {
		prev = model.EmptyProgress(item)
	}
	p, err := next(item, prev)
	if err == nil {
		err = checkProgress(item, p)
	}
	if err != nil {
		return failed(prev, err)
	}

	nextState := prevState.Clone()
	nextState.SetProgress(groupID, itemID, p)
	s.state.setCharacterState(charKey, nextState)
	if err := s.progress.SetCharacterProgress(ctx, charKey, groupID, itemID, p); err != nil {
		s.state.setCharacterState(charKey, prevState)
		s.logger.Warn("completion rolled back", "character", charKey, "item_id", itemID, "error", err)
		return failed(prev, err)
	}
	return applied(prev, p)
}

// SetExpeditionProgress records an account-wide completion value for a
// character group.
func (s *Service) SetExpeditionProgress(ctx context.Context, groupID, itemID string, p model.Progress) Result[model.Progress] {
	unlock := s.locks.Lock(expeditionKey(groupID))
	defer unlock()
	return s.setExpeditionProgress(ctx, groupID, itemID, func(model.TodoItem, model.Progress) (model.Progress, error) {
		return p, nil
	})
}

func (s *Service) IncrementExpeditionProgress(ctx context.Context, groupID, itemID string, delta int) Result[model.Progress] {
	unlock := s.locks.Lock(expeditionKey(groupID))
	defer unlock()
	return s.setExpeditionProgress(ctx, groupID, itemID, increment(delta))
}

func (s *Service) setExpeditionProgress(ctx context.Context, groupID, itemID string, next func(model.TodoItem, model.Progress) (model.Progress, error)) Result[model.Progress] {
	if _, ok := s.state.Group(groupID); !ok {
		return failed(model.Progress{}, notFound("character group", groupID))
	}
	item, ok := s.state.ExpeditionItem(itemID)
	if !ok {
		return failed(model.Progress{}, notFound("expedition todo", itemID))
	}

	prevState := s.state.ExpeditionState(groupID)
	prev, ok := prevState.Completed[itemID]
	if !ok {
		prev = model.EmptyProgress(item)
	}
	p, err := next(item, prev)
	if err == nil {
		err = checkProgress(item, p)
	}
	if err != nil {
		return failed(prev, err)
	}

	nextState := prevState.Clone()
	nextState.SetProgress(itemID, p)
	s.state.setExpeditionState(groupID, nextState)
	if err := s.progress.SetExpeditionProgress(ctx, groupID, itemID, p); err != nil {
		s.state.setExpeditionState(groupID, prevState)
		s.logger.Warn("expedition completion rolled back", "group_id", groupID, "item_id", itemID, "error", err)
		return failed(prev, err)
	}
	return applied(prev, p)
}

func increment(delta int) func(model.TodoItem, model.Progress) (model.Progress, error) {
	return func(item model.TodoItem, cur model.Progress) (model.Progress, error) {
		if item.Type != model.ItemTypeCounter {
			return cur, invalid("%q is not a counter", item.Name)
		}
		return model.Counted(max(cur.Count+delta, 0)), nil
	}
}

// checkProgress rejects values whose shape does not match the item type.
func checkProgress(item model.TodoItem, p model.Progress) error {
	switch item.Type {
	case model.ItemTypeCounter:
		if p.Type != model.ItemTypeCounter {
			return invalid("%q is a counter and needs a number", item.Name)
		}
		if p.Count < 0 {
			return invalid("count must not be negative")
		}
	default:
		if p.Type != model.ItemTypeCheck {
			return invalid("%q is a checkbox and needs true or false", item.Name)
		}
	}
	return nil
}
