package model

import "time"

// Character is one playable character as reported by the game API, plus the
// display order assigned by dailyboard. ItemMaxLevel is never persisted.
type Character struct {
	ServerName         string `json:"ServerName"`
	CharacterName      string `json:"CharacterName"`
	CharacterLevel     int    `json:"CharacterLevel,omitempty"`
	CharacterClassName string `json:"CharacterClassName"`
	ItemAvgLevel       string `json:"ItemAvgLevel"`
	ItemMaxLevel       string `json:"ItemMaxLevel,omitempty"`
	DisplayOrder       *int   `json:"displayOrder,omitempty"`
}

// Key identifies a character across refreshes.
func (c Character) Key() string {
	return CharacterKey(c.CharacterName, c.ServerName)
}

// CharacterKey builds the identity key for a character name and server.
func CharacterKey(name, server string) string {
	return name + "@" + server
}

type CharacterGroup struct {
	ID                 string      `json:"id"`
	RepresentativeName string      `json:"representativeName"`
	CreatedAt          time.Time   `json:"createdAt"`
	Order              *int        `json:"order"`
	Characters         []Character `json:"characters"`
}

// Keys returns the identity keys of the group's characters in list order.
func (g CharacterGroup) Keys() []string {
	keys := make([]string, len(g.Characters))
	for i, c := range g.Characters {
		keys[i] = c.Key()
	}
	return keys
}

// Clone returns a deep copy so callers can mutate characters without touching shared state.
func (g CharacterGroup) Clone() CharacterGroup {
	out := g
	out.Order = cloneInt(g.Order)
	out.Characters = make([]Character, len(g.Characters))
	for i, c := range g.Characters {
		c.DisplayOrder = cloneInt(c.DisplayOrder)
		out.Characters[i] = c
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
