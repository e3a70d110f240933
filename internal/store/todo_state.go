package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/model"
)

type characterStateDoc struct {
	Selection      *model.Selection                     `json:"selection"`
	SelectedGroups json.RawMessage                      `json:"selectedGroups"`
	Completed      map[string]map[string]model.Progress `json:"completed"`
}

func (d characterStateDoc) toModel() (model.CharacterTodoState, error) {
	st := model.CharacterTodoState{Completed: d.Completed}
	switch {
	case d.Selection != nil:
		st.Selection = *d.Selection
	case len(d.SelectedGroups) > 0:
		if err := json.Unmarshal(d.SelectedGroups, &st.Selection); err != nil {
			return st, err
		}
	}
	if st.Completed == nil {
		st.Completed = make(map[string]map[string]model.Progress)
	}
	return st, nil
}

type expeditionStateDoc struct {
	Completed map[string]model.Progress `json:"completed"`
}

// TodoStateStore persists completion values and group selections. Every
// write touches a single leaf or field; there are no batch writes.
type TodoStateStore struct {
	docs *docstore.Store
}

func NewTodoStateStore(docs *docstore.Store) *TodoStateStore {
	return &TodoStateStore{docs: docs}
}

func (s *TodoStateStore) ListCharacterStates(ctx context.Context) (map[string]model.CharacterTodoState, error) {
	var docs map[string]characterStateDoc
	if _, err := s.docs.GetInto(ctx, characterTodoStatePath, &docs); err != nil {
		return nil, fmt.Errorf("list character todo state: %w", err)
	}

	out := make(map[string]model.CharacterTodoState, len(docs))
	for key, d := range docs {
		st, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("character %q selection: %w", key, err)
		}
		out[key] = st
	}
	return out, nil
}

// SetSelection stores the selection and drops any legacy selectedGroups field.
func (s *TodoStateStore) SetSelection(ctx context.Context, charKey string, sel model.Selection) error {
	err := s.docs.Update(ctx, docstore.Join(characterTodoStatePath, charKey), map[string]any{
		"selection":      sel,
		"selectedGroups": nil,
	})
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

func (s *TodoStateStore) SetCharacterProgress(ctx context.Context, charKey, groupID, itemID string, p model.Progress) error {
	path := docstore.Join(characterTodoStatePath, charKey, "completed", groupID, itemID)
	if err := s.docs.Set(ctx, path, p); err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	return nil
}

func (s *TodoStateStore) ListExpeditionStates(ctx context.Context) (map[string]model.ExpeditionState, error) {
	var docs map[string]expeditionStateDoc
	if _, err := s.docs.GetInto(ctx, expeditionTodoStatePath, &docs); err != nil {
		return nil, fmt.Errorf("list expedition todo state: %w", err)
	}

	out := make(map[string]model.ExpeditionState, len(docs))
	for groupID, d := range docs {
		st := model.ExpeditionState{Completed: d.Completed}
		if st.Completed == nil {
			st.Completed = make(map[string]model.Progress)
		}
		out[groupID] = st
	}
	return out, nil
}

func (s *TodoStateStore) SetExpeditionProgress(ctx context.Context, groupID, itemID string, p model.Progress) error {
	path := docstore.Join(expeditionTodoStatePath, groupID, "completed", itemID)
	if err := s.docs.Set(ctx, path, p); err != nil {
		return fmt.Errorf("save expedition completion: %w", err)
	}
	return nil
}

func (s *TodoStateStore) DeleteExpeditionState(ctx context.Context, groupID string) error {
	if err := s.docs.Remove(ctx, docstore.Join(expeditionTodoStatePath, groupID)); err != nil {
		return fmt.Errorf("delete expedition state: %w", err)
	}
	return nil
}
