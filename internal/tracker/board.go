package tracker

import (
	"github.com/dukerupert/dailyboard/internal/model"
)

// Board is a character's checklist: the selected todo groups with the
// character's progress on each item.
type Board struct {
	Character model.Character `json:"character"`
	Selection model.Selection `json:"selection"`
	Groups    []BoardGroup    `json:"groups"`
}

type BoardGroup struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Items []BoardItem `json:"items"`
}

type BoardItem struct {
	Item     model.TodoItem `json:"item"`
	Progress model.Progress `json:"progress"`
	Complete bool           `json:"complete"`
}

// ExpeditionBoard is the account-wide checklist of one character group.
type ExpeditionBoard struct {
	GroupID string      `json:"groupId"`
	Items   []BoardItem `json:"items"`
}

func boardItem(item model.TodoItem, p model.Progress, ok bool) BoardItem {
	if !ok {
		p = model.EmptyProgress(item)
	}
	return BoardItem{Item: item, Progress: p, Complete: p.Complete(item)}
}

func (s *Service) CharacterBoard(charKey string) (*Board, error) {
	c, ok := s.state.Character(charKey)
	if !ok {
		return nil, notFound("character", charKey)
	}
	st := s.state.CharacterState(charKey)

	b := &Board{Character: c, Selection: st.Selection, Groups: []BoardGroup{}}
	for _, g := range st.Selection.Resolve(s.state.TodoGroups()) {
		bg := BoardGroup{ID: g.ID, Name: g.Name, Items: make([]BoardItem, 0, len(g.Items))}
		for _, it := range g.Items {
			p, ok := st.Progress(g.ID, it.ID)
			bg.Items = append(bg.Items, boardItem(it, p, ok))
		}
		b.Groups = append(b.Groups, bg)
	}
	return b, nil
}

func (s *Service) ExpeditionBoard(groupID string) (*ExpeditionBoard, error) {
	if _, ok := s.state.Group(groupID); !ok {
		return nil, notFound("character group", groupID)
	}
	st := s.state.ExpeditionState(groupID)
	items := s.state.ExpeditionItems()

	b := &ExpeditionBoard{GroupID: groupID, Items: make([]BoardItem, 0, len(items))}
	for _, it := range items {
		p, ok := st.Completed[it.ID]
		b.Items = append(b.Items, boardItem(it, p, ok))
	}
	return b, nil
}
