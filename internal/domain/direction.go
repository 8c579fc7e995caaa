package domain

import "strings"

// Direction decides which side of the target price fires an alert.
type Direction string

const (
	Above Direction = "Above"
	Below Direction = "Below"
)

func (d Direction) Valid() bool {
	return d == Above || d == Below
}

// NormalizeDirection maps case-insensitive input onto the canonical values.
// Unknown input is returned trimmed so validation can report it.
func NormalizeDirection(s string) Direction {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "above":
		return Above
	case "below":
		return Below
	default:
		return Direction(s)
	}
}
