// Package views renders the HTML pages as templ components.
//
// Components read the signed-in caller from the render context, so handlers
// only pass page data. The *_templ.go files are generated from the .templ
// sources with `templ generate`.
package views

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"boards/internal/board/models"
	id "boards/pkg/domain"
	"boards/pkg/platform/forms"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.857 generate

const timeLayout = "Jan 2, 2006 15:04"

// URL helpers shared with handlers building redirects.

func BoardURL(boardID id.BoardID) string {
	return "/boards/" + boardID.String() + "/"
}

func NewTopicURL(boardID id.BoardID) string {
	return BoardURL(boardID) + "new/"
}

func TopicURL(boardID id.BoardID, topicID id.TopicID) string {
	return BoardURL(boardID) + "topics/" + topicID.String() + "/"
}

func ReplyURL(boardID id.BoardID, topicID id.TopicID) string {
	return TopicURL(boardID, topicID) + "reply/"
}

// PostURL points at a post anchor on a given page of its topic.
func PostURL(boardID id.BoardID, topicID id.TopicID, page int, postID id.PostID) string {
	return TopicURL(boardID, topicID) + "?page=" + strconv.Itoa(page) + "#" + postID.String()
}

type SignUpForm struct {
	Username string
	Email    string
	Errors   forms.Errors
}

type LoginForm struct {
	Username string
	Next     string
	Errors   forms.Errors
}

type AccountForm struct {
	FirstName string
	LastName  string
	Email     string
	Saved     bool
	Errors    forms.Errors
}

// NewTopicForm is the data re-rendered into the new topic form.
type NewTopicForm struct {
	Subject string
	Message string
	Errors  forms.Errors
}

// ReplyForm is the data re-rendered into the reply form.
type ReplyForm struct {
	Message string
	Errors  forms.Errors
}

type crumb struct {
	label string
	href  string
}

var homeCrumb = crumb{label: "Boards", href: "/"}

// pager is the navigation state of a paged listing. It is nil when the
// listing fits on one page.
type pager struct {
	base     string
	number   int
	previous bool
	next     bool
	numbers  []int
}

func pagerOf[T any](base string, p *models.Page[T]) *pager {
	if p == nil || p.Pages <= 1 {
		return nil
	}
	return &pager{
		base:     base,
		number:   p.Number,
		previous: p.HasPrevious(),
		next:     p.HasNext(),
		numbers:  p.Range(2),
	}
}

func (p *pager) url(n int) templ.SafeURL {
	return templ.URL(p.base + "?page=" + strconv.Itoa(n))
}

func (p *pager) last() templ.SafeURL {
	return templ.URL(p.base + "?page=last")
}

// recentFirst reverses the oldest-first slice the service returns.
func recentFirst(posts []models.PostView) []models.PostView {
	out := make([]models.PostView, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = p
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
