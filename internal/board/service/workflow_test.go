package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boards/internal/board/models"
	"boards/internal/board/service"
	"boards/internal/board/store"
	"boards/internal/platform/database"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/audit/publishers/compliance"
	"boards/pkg/platform/audit/store/sqlstore"
	"boards/pkg/requestcontext"
	"boards/pkg/testutil"
)

type workflow struct {
	db      *database.DB
	service *service.Service
	audit   *sqlstore.Store
	caller  id.Caller
	board   *models.Board
}

func newWorkflow(t *testing.T, opts ...service.Option) *workflow {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	auditStore := sqlstore.New(db.DB, db.Rebind)
	opts = append([]service.Option{service.WithAuditPublisher(compliance.New(auditStore))}, opts...)
	svc := service.New(store.New(db), db, opts...)

	var userID int64
	err := db.QueryRowContext(ctx, `INSERT INTO users (username, password_hash, date_joined) VALUES ('john', '', ?) RETURNING id`,
		time.Now().UTC()).Scan(&userID)
	require.NoError(t, err)

	board, err := svc.CreateBoard(ctx, &models.NewBoardRequest{Name: "Django", Description: "Django board."})
	require.NoError(t, err)

	return &workflow{
		db:      db,
		service: svc,
		audit:   auditStore,
		caller:  id.Caller{UserID: id.UserID(userID), Username: "john"},
		board:   board,
	}
}

func at(minutes int) context.Context {
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return requestcontext.WithTime(context.Background(), base.Add(time.Duration(minutes)*time.Minute))
}

func TestStartTopicPersistsTopicPostAndAudit(t *testing.T) {
	w := newWorkflow(t)

	topic, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "Test title", Message: "Lorem ipsum dolor sit amet"})
	require.NoError(t, err)

	tp, err := w.service.TopicPosts(at(1), w.board.ID, topic.ID, "")
	require.NoError(t, err)
	require.Len(t, tp.Page.Items, 1)
	assert.Equal(t, "Lorem ipsum dolor sit amet", tp.Page.Items[0].Message)
	assert.Equal(t, "john", tp.Page.Items[0].AuthorName)

	events, err := w.audit.ListByUser(context.Background(), w.caller.UserID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventTopicCreated), events[0].Action)
	assert.Equal(t, audit.CategoryContent, events[0].Category)
}

func TestReplyPagesAndOrdering(t *testing.T) {
	w := newWorkflow(t, service.WithPageSizes(2, 2))

	first, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "First", Message: "one"})
	require.NoError(t, err)
	second, err := w.service.StartTopic(at(1), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "Second", Message: "two"})
	require.NoError(t, err)

	bt, err := w.service.BoardTopics(at(2), w.board.ID, "")
	require.NoError(t, err)
	require.Len(t, bt.Page.Items, 2)
	assert.Equal(t, second.ID, bt.Page.Items[0].ID)

	var pages []int
	for i := range 3 {
		result, err := w.service.Reply(at(3+i), w.caller, w.board.ID, first.ID, &models.ReplyRequest{Message: "reply"})
		require.NoError(t, err)
		pages = append(pages, result.Page)
	}
	// Posts 2, 3 and 4 of the topic with two posts per page.
	assert.Equal(t, []int{1, 2, 2}, pages)

	bt, err = w.service.BoardTopics(at(10), w.board.ID, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, bt.Page.Items[0].ID, "reply bumps the topic to the top")
	assert.Equal(t, 3, bt.Page.Items[0].Replies)

	last, err := w.service.TopicPosts(at(10), w.board.ID, first.ID, "last")
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page.Number)
	assert.Len(t, last.Page.Items, 2)

	_, err = w.service.TopicPosts(at(10), w.board.ID, first.ID, "3")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestReplyAgainstWrongBoardWritesNothing(t *testing.T) {
	w := newWorkflow(t)
	other, err := w.service.CreateBoard(context.Background(), &models.NewBoardRequest{Name: "Python"})
	require.NoError(t, err)
	topic, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "Hello", Message: "world"})
	require.NoError(t, err)

	_, err = w.service.Reply(at(1), w.caller, other.ID, topic.ID, &models.ReplyRequest{Message: "misplaced"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	boards, err := w.service.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, 1, boards[0].PostCount)
	assert.Zero(t, boards[1].PostCount)
}

func TestInvalidTopicLeavesNoRows(t *testing.T) {
	w := newWorkflow(t)

	_, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "", Message: ""})
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	boards, err := w.service.ListBoards(context.Background())
	require.NoError(t, err)
	assert.Zero(t, boards[0].TopicCount)
	assert.Zero(t, boards[0].PostCount)
	assert.Nil(t, boards[0].LastPost)

	events, err := w.audit.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

type failingAudit struct{}

func (failingAudit) Emit(context.Context, audit.Event) error {
	return errors.New("audit store unavailable")
}

func (w *workflow) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, w.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestStartTopicRollsBackWhenAuditFails(t *testing.T) {
	w := newWorkflow(t, service.WithAuditPublisher(failingAudit{}))

	_, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "Hello", Message: "world"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	boards, err := w.service.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Zero(t, boards[0].TopicCount)
	assert.Zero(t, boards[0].PostCount)
	assert.Zero(t, w.count(t, "topics"))
	assert.Zero(t, w.count(t, "posts"))
}

func TestReplyRollsBackWhenAuditFails(t *testing.T) {
	w := newWorkflow(t)
	topic, err := w.service.StartTopic(at(0), w.caller, w.board.ID, &models.NewTopicRequest{Subject: "Hello", Message: "world"})
	require.NoError(t, err)

	broken := service.New(store.New(w.db), w.db, service.WithAuditPublisher(failingAudit{}))
	_, err = broken.Reply(at(5), w.caller, w.board.ID, topic.ID, &models.ReplyRequest{Message: "lost"})
	require.Error(t, err)

	assert.Equal(t, 1, w.count(t, "posts"))
	tc, err := w.service.GetTopic(context.Background(), w.board.ID, topic.ID)
	require.NoError(t, err)
	assert.True(t, tc.Topic.LastUpdated.Equal(topic.LastUpdated), "last_updated must not move")
}
