package store

import (
	"errors"

	"github.com/dukerupert/dailyboard/internal/docstore"
)

// Document tree layout. Compatible with data written by the web client.
const (
	characterGroupsPath     = "lostark/character_groups"
	todoCatalogPath         = "lostark/todo_catalog"
	expeditionTodosPath     = "lostark/expedition_todos"
	characterTodoStatePath  = "lostark/character_todo_state"
	expeditionTodoStatePath = "lostark/expedition_todo_state"
	SettingsPath            = "lostark/settings"
)

var ErrEmptyGroup = errors.New("character group has no characters")

// orderFields builds an update that assigns order 0..n-1 to the children ids.
func orderFields(ids []string) map[string]any {
	fields := make(map[string]any, len(ids))
	for i, id := range ids {
		fields[docstore.Join(id, "order")] = i
	}
	return fields
}
