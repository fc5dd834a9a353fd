// Package seed loads board definitions from YAML and creates the missing ones.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"boards/internal/board/models"
)

// File is the seed document:
//
//	boards:
//	  - name: Django
//	    description: This is a board about Django.
type File struct {
	Boards []BoardSpec `yaml:"boards"`
}

type BoardSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Boards is the part of the board service seeding needs.
type Boards interface {
	ListBoards(ctx context.Context) ([]models.BoardSummary, error)
	CreateBoard(ctx context.Context, req *models.NewBoardRequest) (*models.Board, error)
}

// Result reports what Apply did.
type Result struct {
	Created []string
	Skipped []string
}

// Load decodes a seed file. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// Apply creates every board whose name is not taken yet. It stops at the
// first failure; boards created before it stay.
func Apply(ctx context.Context, boards Boards, f *File) (*Result, error) {
	existing, err := boards.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		taken[b.Name] = struct{}{}
	}

	res := &Result{}
	for _, spec := range f.Boards {
		req := &models.NewBoardRequest{Name: spec.Name, Description: spec.Description}
		req.Normalize()
		if _, ok := taken[req.Name]; ok {
			res.Skipped = append(res.Skipped, req.Name)
			continue
		}
		board, err := boards.CreateBoard(ctx, req)
		if err != nil {
			return res, fmt.Errorf("create board %q: %w", spec.Name, err)
		}
		taken[board.Name] = struct{}{}
		res.Created = append(res.Created, board.Name)
	}
	return res, nil
}
