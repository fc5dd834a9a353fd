package models

import (
	"strconv"

	dErrors "boards/pkg/domain-errors"
)

// PageRequest is a parsed ?page= value. Last selects the final page whatever
// its number turns out to be.
type PageRequest struct {
	Number int
	Last   bool
}

// ParsePage accepts "", a positive integer or "last". Anything else is a
// NotFound, matching how unknown pages are reported.
func ParsePage(raw string) (PageRequest, error) {
	switch raw {
	case "":
		return PageRequest{Number: 1}, nil
	case "last":
		return PageRequest{Last: true}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return PageRequest{}, dErrors.New(dErrors.CodeNotFound, "invalid page")
	}
	return PageRequest{Number: n}, nil
}

// Resolve turns the request into a concrete page number for total items. The
// first page always exists, even when there are no items.
func (p PageRequest) Resolve(total, perPage int) (int, error) {
	pages := PageCount(total, perPage)
	if p.Last {
		return pages, nil
	}
	if p.Number > pages {
		return 0, dErrors.New(dErrors.CodeNotFound, "page out of range")
	}
	return p.Number, nil
}

// PageCount is the number of pages needed for total items, at least one.
func PageCount(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageOf returns the 1-based page holding the item at the given 1-based ordinal.
func PageOf(ordinal, perPage int) int {
	if ordinal < 1 || perPage < 1 {
		return 1
	}
	return (ordinal-1)/perPage + 1
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T
	Number  int
	Pages   int
	Total   int
	PerPage int
}

func NewPage[T any](items []T, number, total, perPage int) *Page[T] {
	return &Page[T]{
		Items:   items,
		Number:  number,
		Pages:   PageCount(total, perPage),
		Total:   total,
		PerPage: perPage,
	}
}

// Offset is the number of items before this page.
func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool     { return p.Number < p.Pages }

// Range lists the page numbers shown around the current one.
func (p *Page[T]) Range(window int) []int {
	lo := max(1, p.Number-window)
	hi := min(p.Pages, p.Number+window)
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

// BoardTopics is a board with one page of its topics.
type BoardTopics struct {
	Board *Board
	Page  *Page[TopicSummary]
}

// TopicPosts is a topic with one page of its posts.
type TopicPosts struct {
	Board *Board
	Topic *Topic
	Page  *Page[PostView]
}
