package models

import (
	"fmt"
	"slices"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid vote direction %q", s)
	}
}

// Columns returns the vote set toggled by d and the opposite set it clears.
func (d Direction) Columns() (toggle, clear string) {
	if d == Down {
		return "downvotes", "upvotes"
	}
	return "upvotes", "downvotes"
}

type VoteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// VoteState reports the caller's current vote on p, or "" when none.
func (p *Post) VoteState(userID string) Direction {
	switch {
	case slices.Contains(p.Upvotes, userID):
		return Up
	case slices.Contains(p.Downvotes, userID):
		return Down
	default:
		return ""
	}
}

// ApplyVote toggles userID's vote in direction d. Selecting the current
// direction clears it, otherwise the user moves into d's set and out of
// the other one. Both sets are rewritten from the same starting state.
func (p *Post) ApplyVote(userID string, d Direction) {
	p.Normalize()

	same, other := &p.Upvotes, &p.Downvotes
	if d == Down {
		same, other = &p.Downvotes, &p.Upvotes
	}

	if slices.Contains(*same, userID) {
		*same = remove(*same, userID)
	} else {
		*same = append(*same, userID)
	}
	*other = remove(*other, userID)
}

func remove(set []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(set), func(v string) bool { return v == id })
}
