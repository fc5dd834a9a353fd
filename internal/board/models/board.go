package models

import (
	"maps"
	"slices"
	"strings"
	"time"

	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/forms"
)

const (
	MaxBoardNameLength        = 30
	MaxBoardDescriptionLength = 100
	MaxSubjectLength          = 255
	MaxMessageLength          = 4000
)

// Board groups topics under a named section. Boards are created through
// administrative setup and are immutable from the web surface.
//
// Invariants:
//   - Name is non-empty, unique and at most 30 characters
//   - Description is at most 100 characters
type Board struct {
	ID          id.BoardID
	Name        string
	Description string
	CreatedAt   time.Time
}

// NewBoard validates invariants and returns a board ready to be stored.
func NewBoard(name, description string, now time.Time) (*Board, error) {
	req := NewBoardRequest{Name: name, Description: description}
	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, firstError(errs))
	}
	return &Board{Name: req.Name, Description: req.Description, CreatedAt: now}, nil
}

// LastPost describes the most recent post on a board.
type LastPost struct {
	PostID    id.PostID
	TopicID   id.TopicID
	CreatedAt time.Time
	Author    string
}

// BoardSummary is a board with its activity counters, as shown on the home page.
type BoardSummary struct {
	Board
	TopicCount int
	PostCount  int
	LastPost   *LastPost
}

// NewBoardRequest is the administrative input for creating a board.
type NewBoardRequest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func (r *NewBoardRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *NewBoardRequest) Validate() forms.Errors {
	errs := forms.Errors{}
	if errs.Required("name", r.Name) {
		errs.MaxLength("name", r.Name, MaxBoardNameLength)
	}
	errs.MaxLength("description", r.Description, MaxBoardDescriptionLength)
	return errs
}

func firstError(errs forms.Errors) string {
	for _, field := range slices.Sorted(maps.Keys(errs)) {
		if msgs := errs[field]; len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return "invalid"
}
