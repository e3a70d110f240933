package tracker

import (
	"sync"

	"github.com/dukerupert/dailyboard/internal/model"
)

// State is the in-memory view every command reads from and updates. All
// accessors return copies.
type State struct {
	mu         sync.RWMutex
	groups     []model.CharacterGroup
	todoGroups []model.TodoGroup
	expedition []model.TodoItem
	characters map[string]model.CharacterTodoState
	expProg    map[string]model.ExpeditionState
}

func NewState() *State {
	return &State{
		characters: make(map[string]model.CharacterTodoState),
		expProg:    make(map[string]model.ExpeditionState),
	}
}

func (st *State) replace(groups []model.CharacterGroup, todoGroups []model.TodoGroup, expedition []model.TodoItem,
	characters map[string]model.CharacterTodoState, expProg map[string]model.ExpeditionState) {
	if characters == nil {
		characters = make(map[string]model.CharacterTodoState)
	}
	if expProg == nil {
		expProg = make(map[string]model.ExpeditionState)
	}
	model.SortCharacterGroups(groups)
	model.SortTodoGroups(todoGroups)
	model.SortTodoItems(expedition, model.NewestFirst)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.groups = groups
	st.todoGroups = todoGroups
	st.expedition = expedition
	st.characters = characters
	st.expProg = expProg
}

// Character groups

func (st *State) Groups() []model.CharacterGroup {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.CharacterGroup, len(st.groups))
	for i, g := range st.groups {
		out[i] = g.Clone()
	}
	return out
}

func (st *State) Group(id string) (model.CharacterGroup, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, g := range st.groups {
		if g.ID == id {
			return g.Clone(), true
		}
	}
	return model.CharacterGroup{}, false
}

// Character finds a saved character by identity key in any group.
func (st *State) Character(key string) (model.Character, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, g := range st.groups {
		for _, c := range g.Characters {
			if c.Key() == key {
				c.DisplayOrder = nil
				return c, true
			}
		}
	}
	return model.Character{}, false
}

func (st *State) addGroup(g model.CharacterGroup) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.groups = append([]model.CharacterGroup{g.Clone()}, st.groups...)
	model.SortCharacterGroups(st.groups)
}

func (st *State) updateGroup(id string, fn func(g *model.CharacterGroup)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.groups {
		if st.groups[i].ID == id {
			fn(&st.groups[i])
			return true
		}
	}
	return false
}

func (st *State) removeGroup(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, g := range st.groups {
		if g.ID == id {
			st.groups = append(st.groups[:i:i], st.groups[i+1:]...)
			break
		}
	}
	delete(st.expProg, id)
}

func (st *State) setGroupOrders(orders map[string]*int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.groups {
		if o, ok := orders[st.groups[i].ID]; ok {
			st.groups[i].Order = o
		}
	}
	model.SortCharacterGroups(st.groups)
}

// Todo catalog

func (st *State) TodoGroups() []model.TodoGroup {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.TodoGroup, len(st.todoGroups))
	for i, g := range st.todoGroups {
		out[i] = g.Clone()
	}
	return out
}

func (st *State) TodoGroup(id string) (model.TodoGroup, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, g := range st.todoGroups {
		if g.ID == id {
			return g.Clone(), true
		}
	}
	return model.TodoGroup{}, false
}

func (st *State) addTodoGroup(g model.TodoGroup) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.todoGroups = append(st.todoGroups, g.Clone())
	model.SortTodoGroups(st.todoGroups)
}

func (st *State) updateTodoGroup(id string, fn func(g *model.TodoGroup)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.todoGroups {
		if st.todoGroups[i].ID == id {
			fn(&st.todoGroups[i])
			model.SortTodoItems(st.todoGroups[i].Items, model.OldestFirst)
			return true
		}
	}
	return false
}

func (st *State) removeTodoGroup(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, g := range st.todoGroups {
		if g.ID == id {
			st.todoGroups = append(st.todoGroups[:i:i], st.todoGroups[i+1:]...)
			return
		}
	}
}

func (st *State) setTodoGroupOrders(orders map[string]*int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.todoGroups {
		if o, ok := orders[st.todoGroups[i].ID]; ok {
			st.todoGroups[i].Order = o
		}
	}
	model.SortTodoGroups(st.todoGroups)
}

// Expedition items

func (st *State) ExpeditionItems() []model.TodoItem {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.TodoItem, len(st.expedition))
	for i, it := range st.expedition {
		out[i] = it.Clone()
	}
	return out
}

func (st *State) ExpeditionItem(id string) (model.TodoItem, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, it := range st.expedition {
		if it.ID == id {
			return it.Clone(), true
		}
	}
	return model.TodoItem{}, false
}

func (st *State) addExpeditionItem(it model.TodoItem) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expedition = append(st.expedition, it.Clone())
	model.SortTodoItems(st.expedition, model.NewestFirst)
}

func (st *State) removeExpeditionItem(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, it := range st.expedition {
		if it.ID == id {
			st.expedition = append(st.expedition[:i:i], st.expedition[i+1:]...)
			return
		}
	}
}

func (st *State) setExpeditionOrders(orders map[string]*int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.expedition {
		if o, ok := orders[st.expedition[i].ID]; ok {
			st.expedition[i].Order = o
		}
	}
	model.SortTodoItems(st.expedition, model.NewestFirst)
}

// Completion state

// CharacterState returns the stored state, or the zero state (every group
// selected, nothing completed) for a character never touched.
func (st *State) CharacterState(key string) model.CharacterTodoState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.characters[key].Clone()
}

func (st *State) setCharacterState(key string, s model.CharacterTodoState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.characters[key] = s.Clone()
}

func (st *State) ExpeditionState(groupID string) model.ExpeditionState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.expProg[groupID].Clone()
}

func (st *State) setExpeditionState(groupID string, s model.ExpeditionState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expProg[groupID] = s.Clone()
}

func orderPtrs[T any](items []T, id func(T) string, order func(T) *int) map[string]*int {
	out := make(map[string]*int, len(items))
	for _, it := range items {
		if o := order(it); o != nil {
			v := *o
			out[id(it)] = &v
		} else {
			out[id(it)] = nil
		}
	}
	return out
}

func sequentialOrders(ids []string) map[string]*int {
	out := make(map[string]*int, len(ids))
	for i, id := range ids {
		out[id] = model.IntPtr(i)
	}
	return out
}
