package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/roster"
)

type groupDoc struct {
	RepresentativeName string            `json:"representativeName"`
	CreatedAt          time.Time         `json:"createdAt"`
	Order              *int              `json:"order,omitempty"`
	Characters         []model.Character `json:"characters"`
}

func (d groupDoc) toModel(id string) model.CharacterGroup {
	return model.CharacterGroup{
		ID:                 id,
		RepresentativeName: d.RepresentativeName,
		CreatedAt:          d.CreatedAt,
		Order:              d.Order,
		Characters:         roster.SortForDisplay(d.Characters),
	}
}

type CharacterGroupStore struct {
	docs *docstore.Store
}

func NewCharacterGroupStore(docs *docstore.Store) *CharacterGroupStore {
	return &CharacterGroupStore{docs: docs}
}

// Create persists a new group and returns it with its generated id.
func (s *CharacterGroupStore) Create(ctx context.Context, representative string, createdAt time.Time, chars []model.Character) (*model.CharacterGroup, error) {
	if len(chars) == 0 {
		return nil, ErrEmptyGroup
	}
	doc := groupDoc{
		RepresentativeName: representative,
		CreatedAt:          createdAt.UTC(),
		Characters:         chars,
	}
	id, err := s.docs.Push(ctx, characterGroupsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("create character group: %w", err)
	}
	g := doc.toModel(id)
	return &g, nil
}

func (s *CharacterGroupStore) List(ctx context.Context) ([]model.CharacterGroup, error) {
	var docs map[string]groupDoc
	if _, err := s.docs.GetInto(ctx, characterGroupsPath, &docs); err != nil {
		return nil, fmt.Errorf("list character groups: %w", err)
	}

	groups := make([]model.CharacterGroup, 0, len(docs))
	for id, d := range docs {
		groups = append(groups, d.toModel(id))
	}
	model.SortCharacterGroups(groups)
	return groups, nil
}

func (s *CharacterGroupStore) GetByID(ctx context.Context, id string) (*model.CharacterGroup, error) {
	var d groupDoc
	ok, err := s.docs.GetInto(ctx, docstore.Join(characterGroupsPath, id), &d)
	if err != nil {
		return nil, fmt.Errorf("get character group: %w", err)
	}
	if !ok {
		return nil, nil
	}
	g := d.toModel(id)
	return &g, nil
}

// UpdateCharacters replaces the member list and representative of a group.
func (s *CharacterGroupStore) UpdateCharacters(ctx context.Context, id, representative string, chars []model.Character) error {
	if len(chars) == 0 {
		return ErrEmptyGroup
	}
	err := s.docs.Update(ctx, docstore.Join(characterGroupsPath, id), map[string]any{
		"representativeName": representative,
		"characters":         chars,
	})
	if err != nil {
		return fmt.Errorf("update characters: %w", err)
	}
	return nil
}

// UpdateSortOrder assigns order 0..n-1 to the groups in ids in one write.
func (s *CharacterGroupStore) UpdateSortOrder(ctx context.Context, ids []string) error {
	if err := s.docs.Update(ctx, characterGroupsPath, orderFields(ids)); err != nil {
		return fmt.Errorf("update group order: %w", err)
	}
	return nil
}

func (s *CharacterGroupStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Remove(ctx, docstore.Join(characterGroupsPath, id)); err != nil {
		return fmt.Errorf("delete character group: %w", err)
	}
	return nil
}
