// Package roster merges character rosters fetched from the game API with the
// order and membership a user has already saved.
package roster

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dukerupert/dailyboard/internal/model"
)

// MinItemLevel is the admission threshold for saved characters.
const MinItemLevel = 1000

var levelPrefix = regexp.MustCompile(`^\d+(\.\d*)?`)

// ParseItemLevel reads a locale formatted level such as "1,640.83".
// Anything without a leading number parses as 0.
func ParseItemLevel(s string) float64 {
	m := levelPrefix.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// Admissible reports whether c meets the admission threshold.
func Admissible(c model.Character) bool {
	return ParseItemLevel(c.ItemAvgLevel) >= MinItemLevel
}

// admit filters to admissible characters and strips fields that must not be stored.
func admit(incoming []model.Character) []model.Character {
	out := make([]model.Character, 0, len(incoming))
	for _, c := range incoming {
		if !Admissible(c) {
			continue
		}
		c.ItemMaxLevel = ""
		c.DisplayOrder = nil
		out = append(out, c)
	}
	return out
}
