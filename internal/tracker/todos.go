package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/dailyboard/internal/model"
)

// ItemSpec describes a todo item to add. Any Type other than counter means a
// check item.
type ItemSpec struct {
	Name        string
	Type        model.ItemType
	TargetCount *int
}

func (spec ItemSpec) validate() (model.TodoItem, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return model.TodoItem{}, invalid("enter a todo name")
	}
	if model.ParseItemType(string(spec.Type)) != model.ItemTypeCounter {
		return model.TodoItem{Name: name, Type: model.ItemTypeCheck}, nil
	}
	if spec.TargetCount != nil && *spec.TargetCount <= 0 {
		return model.TodoItem{}, invalid("target count must be positive")
	}
	return model.TodoItem{Name: name, Type: model.ItemTypeCounter, TargetCount: spec.TargetCount}, nil
}

func (s *Service) CreateTodoGroup(ctx context.Context, name string) (*model.TodoGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("enter a group name")
	}
	order := len(s.state.TodoGroups())
	g, err := s.todos.CreateGroup(ctx, name, model.IntPtr(order), s.now())
	if err != nil {
		return nil, err
	}
	s.state.addTodoGroup(*g)
	return g, nil
}

func (s *Service) RenameTodoGroup(ctx context.Context, id, name string) (*model.TodoGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("enter a group name")
	}
	if _, ok := s.state.TodoGroup(id); !ok {
		return nil, notFound("todo group", id)
	}
	if err := s.todos.RenameGroup(ctx, id, name); err != nil {
		return nil, err
	}
	s.state.updateTodoGroup(id, func(g *model.TodoGroup) { g.Name = name })
	g, _ := s.state.TodoGroup(id)
	return &g, nil
}

// DeleteTodoGroup removes a group from the catalog. Selections and progress
// that mention it are left alone; they stop resolving to anything.
func (s *Service) DeleteTodoGroup(ctx context.Context, id string) error {
	if _, ok := s.state.TodoGroup(id); !ok {
		return notFound("todo group", id)
	}
	if err := s.todos.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.state.removeTodoGroup(id)
	return nil
}

func (s *Service) AddTodoItem(ctx context.Context, groupID string, spec ItemSpec) (*model.TodoItem, error) {
	item, err := spec.validate()
	if err != nil {
		return nil, err
	}
	g, ok := s.state.TodoGroup(groupID)
	if !ok {
		return nil, notFound("todo group", groupID)
	}
	item.Order = model.IntPtr(len(g.Items))
	item.CreatedAt = s.now()

	saved, err := s.todos.AddItem(ctx, groupID, item)
	if err != nil {
		return nil, err
	}
	s.state.updateTodoGroup(groupID, func(g *model.TodoGroup) { g.Items = append(g.Items, saved.Clone()) })
	return saved, nil
}

func (s *Service) DeleteTodoItem(ctx context.Context, groupID, itemID string) error {
	g, ok := s.state.TodoGroup(groupID)
	if !ok {
		return notFound("todo group", groupID)
	}
	if _, ok := g.Item(itemID); !ok {
		return notFound("todo item", itemID)
	}
	if err := s.todos.DeleteItem(ctx, groupID, itemID); err != nil {
		return err
	}
	s.state.updateTodoGroup(groupID, func(g *model.TodoGroup) {
		for i, it := range g.Items {
			if it.ID == itemID {
				g.Items = append(g.Items[:i:i], g.Items[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *Service) ReorderTodoGroups(ctx context.Context, ids []string) Result[[]model.TodoGroup] {
	prev := s.state.TodoGroups()
	current := make([]string, len(prev))
	for i, g := range prev {
		current[i] = g.ID
	}
	if err := checkPermutation(current, ids); err != nil {
		return failed(prev, err)
	}

	before := orderPtrs(prev, func(g model.TodoGroup) string { return g.ID }, func(g model.TodoGroup) *int { return g.Order })
	s.state.setTodoGroupOrders(sequentialOrders(ids))
	if err := s.todos.UpdateGroupSortOrder(ctx, ids); err != nil {
		s.state.setTodoGroupOrders(before)
		s.logger.Warn("todo group order rolled back", "error", err)
		return failed(prev, err)
	}
	return applied(prev, s.state.TodoGroups())
}

func (s *Service) ReorderTodoItems(ctx context.Context, groupID string, ids []string) Result[model.TodoGroup] {
	prev, ok := s.state.TodoGroup(groupID)
	if !ok {
		return failed(prev, notFound("todo group", groupID))
	}
	current := make([]string, len(prev.Items))
	for i, it := range prev.Items {
		current[i] = it.ID
	}
	if err := checkPermutation(current, ids); err != nil {
		return failed(prev, err)
	}

	setOrders := func(orders map[string]*int) {
		s.state.updateTodoGroup(groupID, func(g *model.TodoGroup) {
			for i := range g.Items {
				if o, ok := orders[g.Items[i].ID]; ok {
					g.Items[i].Order = o
				}
			}
		})
	}
	before := orderPtrs(prev.Items, func(it model.TodoItem) string { return it.ID }, func(it model.TodoItem) *int { return it.Order })
	setOrders(sequentialOrders(ids))
	if err := s.todos.UpdateItemSortOrder(ctx, groupID, ids); err != nil {
		setOrders(before)
		s.logger.Warn("todo item order rolled back", "group_id", groupID, "error", err)
		return failed(prev, err)
	}
	next, _ := s.state.TodoGroup(groupID)
	return applied(prev, next)
}

func (s *Service) AddExpeditionItem(ctx context.Context, spec ItemSpec) (*model.TodoItem, error) {
	item, err := spec.validate()
	if err != nil {
		return nil, err
	}
	item.Order = model.IntPtr(len(s.state.ExpeditionItems()))
	item.CreatedAt = s.now()

	saved, err := s.expedition.Add(ctx, item)
	if err != nil {
		return nil, err
	}
	s.state.addExpeditionItem(*saved)
	return saved, nil
}

func (s *Service) DeleteExpeditionItem(ctx context.Context, id string) error {
	if _, ok := s.state.ExpeditionItem(id); !ok {
		return notFound("expedition todo", id)
	}
	if err := s.expedition.Delete(ctx, id); err != nil {
		return err
	}
	s.state.removeExpeditionItem(id)
	return nil
}

func (s *Service) ReorderExpeditionItems(ctx context.Context, ids []string) Result[[]model.TodoItem] {
	prev := s.state.ExpeditionItems()
	current := make([]string, len(prev))
	for i, it := range prev {
		current[i] = it.ID
	}
	if err := checkPermutation(current, ids); err != nil {
		return failed(prev, err)
	}

	before := orderPtrs(prev, func(it model.TodoItem) string { return it.ID }, func(it model.TodoItem) *int { return it.Order })
	s.state.setExpeditionOrders(sequentialOrders(ids))
	if err := s.expedition.UpdateSortOrder(ctx, ids); err != nil {
		s.state.setExpeditionOrders(before)
		s.logger.Warn("expedition order rolled back", "error", err)
		return failed(prev, err)
	}
	return applied(prev, s.state.ExpeditionItems())
}
