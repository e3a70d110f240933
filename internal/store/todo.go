package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/model"
)

const unnamedGroup = "Unnamed group"

type itemDoc struct {
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	Order       *int      `json:"order,omitempty"`
	Type        string    `json:"type,omitempty"`
	TargetCount *int      `json:"targetCount,omitempty"`
}

func (d itemDoc) toModel(id string) model.TodoItem {
	it := model.TodoItem{
		ID:          id,
		Name:        d.Name,
		CreatedAt:   d.CreatedAt,
		Order:       d.Order,
		Type:        model.ItemType(d.Type),
		TargetCount: d.TargetCount,
	}
	it.Normalize()
	return it
}

func newItemDoc(it model.TodoItem) itemDoc {
	it.Normalize()
	return itemDoc{
		Name:        it.Name,
		CreatedAt:   it.CreatedAt.UTC(),
		Order:       it.Order,
		Type:        string(it.Type),
		TargetCount: it.TargetCount,
	}
}

type todoGroupDoc struct {
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"createdAt"`
	Order     *int               `json:"order,omitempty"`
	Items     map[string]itemDoc `json:"items,omitempty"`
}

func (d todoGroupDoc) toModel(id string) model.TodoGroup {
	name := d.Name
	if strings.TrimSpace(name) == "" {
		name = unnamedGroup
	}
	g := model.TodoGroup{
		ID:        id,
		Name:      name,
		CreatedAt: d.CreatedAt,
		Order:     d.Order,
		Items:     make([]model.TodoItem, 0, len(d.Items)),
	}
	for itemID, it := range d.Items {
		g.Items = append(g.Items, it.toModel(itemID))
	}
	model.SortTodoItems(g.Items, model.OldestFirst)
	return g
}

// TodoStore holds the reusable per-character todo catalog.
type TodoStore struct {
	docs *docstore.Store
}

func NewTodoStore(docs *docstore.Store) *TodoStore {
	return &TodoStore{docs: docs}
}

func (s *TodoStore) List(ctx context.Context) ([]model.TodoGroup, error) {
	var docs map[string]todoGroupDoc
	if _, err := s.docs.GetInto(ctx, todoCatalogPath, &docs); err != nil {
		return nil, fmt.Errorf("list todo groups: %w", err)
	}

	groups := make([]model.TodoGroup, 0, len(docs))
	for id, d := range docs {
		groups = append(groups, d.toModel(id))
	}
	model.SortTodoGroups(groups)
	return groups, nil
}

func (s *TodoStore) CreateGroup(ctx context.Context, name string, order *int, createdAt time.Time) (*model.TodoGroup, error) {
	doc := todoGroupDoc{Name: name, CreatedAt: createdAt.UTC(), Order: order}
	id, err := s.docs.Push(ctx, todoCatalogPath, doc)
	if err != nil {
		return nil, fmt.Errorf("create todo group: %w", err)
	}
	g := doc.toModel(id)
	return &g, nil
}

func (s *TodoStore) RenameGroup(ctx context.Context, id, name string) error {
	if err := s.docs.Set(ctx, docstore.Join(todoCatalogPath, id, "name"), name); err != nil {
		return fmt.Errorf("rename todo group: %w", err)
	}
	return nil
}

func (s *TodoStore) DeleteGroup(ctx context.Context, id string) error {
	if err := s.docs.Remove(ctx, docstore.Join(todoCatalogPath, id)); err != nil {
		return fmt.Errorf("delete todo group: %w", err)
	}
	return nil
}

func (s *TodoStore) AddItem(ctx context.Context, groupID string, item model.TodoItem) (*model.TodoItem, error) {
	doc := newItemDoc(item)
	id, err := s.docs.Push(ctx, docstore.Join(todoCatalogPath, groupID, "items"), doc)
	if err != nil {
		return nil, fmt.Errorf("add todo item: %w", err)
	}
	it := doc.toModel(id)
	return &it, nil
}

func (s *TodoStore) DeleteItem(ctx context.Context, groupID, itemID string) error {
	if err := s.docs.Remove(ctx, docstore.Join(todoCatalogPath, groupID, "items", itemID)); err != nil {
		return fmt.Errorf("delete todo item: %w", err)
	}
	return nil
}

func (s *TodoStore) UpdateGroupSortOrder(ctx context.Context, ids []string) error {
	if err := s.docs.Update(ctx, todoCatalogPath, orderFields(ids)); err != nil {
		return fmt.Errorf("update todo group order: %w", err)
	}
	return nil
}

func (s *TodoStore) UpdateItemSortOrder(ctx context.Context, groupID string, ids []string) error {
	if err := s.docs.Update(ctx, docstore.Join(todoCatalogPath, groupID, "items"), orderFields(ids)); err != nil {
		return fmt.Errorf("update todo item order: %w", err)
	}
	return nil
}

// ExpeditionStore holds the account-wide todo items.
type ExpeditionStore struct {
	docs *docstore.Store
}

func NewExpeditionStore(docs *docstore.Store) *ExpeditionStore {
	return &ExpeditionStore{docs: docs}
}

func (s *ExpeditionStore) List(ctx context.Context) ([]model.TodoItem, error) {
	var docs map[string]itemDoc
	if _, err := s.docs.GetInto(ctx, expeditionTodosPath, &docs); err != nil {
		return nil, fmt.Errorf("list expedition todos: %w", err)
	}

	items := make([]model.TodoItem, 0, len(docs))
	for id, d := range docs {
		items = append(items, d.toModel(id))
	}
	model.SortTodoItems(items, model.NewestFirst)
	return items, nil
}

func (s *ExpeditionStore) Add(ctx context.Context, item model.TodoItem) (*model.TodoItem, error) {
	doc := newItemDoc(item)
	id, err := s.docs.Push(ctx, expeditionTodosPath, doc)
	if err != nil {
		return nil, fmt.Errorf("add expedition todo: %w", err)
	}
	it := doc.toModel(id)
	return &it, nil
}

func (s *ExpeditionStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Remove(ctx, docstore.Join(expeditionTodosPath, id)); err != nil {
		return fmt.Errorf("delete expedition todo: %w", err)
	}
	return nil
}

func (s *ExpeditionStore) UpdateSortOrder(ctx context.Context, ids []string) error {
	if err := s.docs.Update(ctx, expeditionTodosPath, orderFields(ids)); err != nil {
		return fmt.Errorf("update expedition todo order: %w", err)
	}
	return nil
}
