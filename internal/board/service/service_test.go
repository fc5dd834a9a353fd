package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,TxRunner,AuditPublisher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"boards/internal/board/metrics"
	"boards/internal/board/models"
	"boards/internal/board/service/mocks"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/sentinel"
	"boards/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	tx        *mocks.MockTxRunner
	publisher *mocks.MockAuditPublisher
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
	caller    id.Caller
	board     *models.Board
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.tx = mocks.NewMockTxRunner(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.tx,
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithPageSizes(2, 2),
	)
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
	s.caller = id.Caller{UserID: 7, Username: "john"}
	s.board = &models.Board{ID: 1, Name: "Django", Description: "Django board."}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectTx() {
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func (s *ServiceSuite) TestStartTopic() {
	s.Run("anonymous caller is rejected before any lookup", func() {
		req := &models.NewTopicRequest{Subject: "Test title", Message: "Lorem ipsum"}
		_, err := s.service.StartTopic(s.ctx, id.Anonymous(), 99, req)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown board is not found even with invalid input", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), id.BoardID(99)).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.StartTopic(s.ctx, s.caller, 99, &models.NewTopicRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty fields fail validation without writing", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)

		_, err := s.service.StartTopic(s.ctx, s.caller, s.board.ID, &models.NewTopicRequest{Subject: "  ", Message: ""})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		fields := dErrors.FieldsOf(err)
		s.True(fields.Has("subject"))
		s.True(fields.Has("message"))
	})

	s.Run("subject over the limit fails validation", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)

		req := &models.NewTopicRequest{Subject: strings.Repeat("a", models.MaxSubjectLength+1), Message: "body"}
		_, err := s.service.StartTopic(s.ctx, s.caller, s.board.ID, req)
		s.True(dErrors.FieldsOf(err).Has("subject"))
	})

	s.Run("success writes topic, opening post and audit event", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.expectTx()
		s.store.EXPECT().CreateTopic(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, topic *models.Topic) error {
				s.Equal("Test title", topic.Subject)
				s.Equal(s.caller.UserID, topic.StarterID)
				s.True(topic.LastUpdated.Equal(s.now))
				topic.ID = 5
				return nil
			})
		s.store.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, post *models.Post) error {
				s.Equal(id.TopicID(5), post.TopicID)
				s.Equal("Lorem ipsum", post.Message)
				s.Equal(s.caller.UserID, post.CreatedBy)
				post.ID = 11
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				s.Equal(string(audit.EventTopicCreated), event.Action)
				s.Equal(s.caller.UserID, event.UserID)
				s.Equal("topic:5", event.Subject)
				s.Equal("req-1", event.RequestID)
				return nil
			})

		topic, err := s.service.StartTopic(s.ctx, s.caller, s.board.ID, &models.NewTopicRequest{Subject: " Test title ", Message: "Lorem ipsum"})
		s.Require().NoError(err)
		s.Equal(id.TopicID(5), topic.ID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.TopicsCreated))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PostsCreated))
	})

	s.Run("audit failure aborts the write", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.expectTx()
		s.store.EXPECT().CreateTopic(gomock.Any(), gomock.Any()).Return(nil)
		s.store.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.StartTopic(s.ctx, s.caller, s.board.ID, &models.NewTopicRequest{Subject: "t", Message: "m"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestReply() {
	topic := &models.Topic{ID: 3, BoardID: s.board.ID, Subject: "Hello", StarterID: 2}

	s.Run("anonymous caller is rejected", func() {
		_, err := s.service.Reply(s.ctx, id.Anonymous(), s.board.ID, topic.ID, &models.ReplyRequest{Message: "hi"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("topic under another board is not found", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), id.BoardID(2)).Return(&models.Board{ID: 2}, nil)
		s.store.EXPECT().FindTopic(gomock.Any(), id.BoardID(2), topic.ID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Reply(s.ctx, s.caller, 2, topic.ID, &models.ReplyRequest{Message: "hi"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty message fails validation", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().FindTopic(gomock.Any(), s.board.ID, topic.ID).Return(topic, nil)

		_, err := s.service.Reply(s.ctx, s.caller, s.board.ID, topic.ID, &models.ReplyRequest{Message: "   "})
		s.True(dErrors.FieldsOf(err).Has("message"))
	})

	s.Run("success returns the page the reply lands on", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().FindTopic(gomock.Any(), s.board.ID, topic.ID).Return(topic, nil)
		s.expectTx()
		s.store.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, post *models.Post) error {
				post.ID = 42
				return nil
			})
		s.store.EXPECT().TouchTopic(gomock.Any(), topic.ID, s.now).Return(nil)
		s.store.EXPECT().PostOrdinal(gomock.Any(), id.PostID(42)).Return(5, nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Reply(s.ctx, s.caller, s.board.ID, topic.ID, &models.ReplyRequest{Message: "hi"})
		s.Require().NoError(err)
		s.Equal(id.PostID(42), result.Post.ID)
		s.Equal(3, result.Page)
	})

	s.Run("topic removed during the write is not found", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().FindTopic(gomock.Any(), s.board.ID, topic.ID).Return(topic, nil)
		s.expectTx()
		s.store.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		_, err := s.service.Reply(s.ctx, s.caller, s.board.ID, topic.ID, &models.ReplyRequest{Message: "hi"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestBoardTopics() {
	s.Run("unknown board", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), id.BoardID(9)).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.BoardTopics(s.ctx, 9, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("page beyond the last is not found", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().CountTopics(gomock.Any(), s.board.ID).Return(3, nil)
		_, err := s.service.BoardTopics(s.ctx, s.board.ID, "3")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("last page uses the offset of the final page", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().CountTopics(gomock.Any(), s.board.ID).Return(3, nil)
		s.store.EXPECT().ListTopics(gomock.Any(), s.board.ID, 2, 2).Return([]models.TopicSummary{{Topic: models.Topic{ID: 1}}}, nil)

		bt, err := s.service.BoardTopics(s.ctx, s.board.ID, "last")
		s.Require().NoError(err)
		s.Equal(2, bt.Page.Number)
		s.Equal(2, bt.Page.Pages)
		s.Len(bt.Page.Items, 1)
		s.Equal("Django", bt.Board.Name)
	})

	s.Run("empty board has a first page", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(s.board, nil)
		s.store.EXPECT().CountTopics(gomock.Any(), s.board.ID).Return(0, nil)
		s.store.EXPECT().ListTopics(gomock.Any(), s.board.ID, 2, 0).Return(nil, nil)

		bt, err := s.service.BoardTopics(s.ctx, s.board.ID, "")
		s.Require().NoError(err)
		s.Empty(bt.Page.Items)
	})

	s.Run("store failure is internal", func() {
		s.store.EXPECT().FindBoard(gomock.Any(), s.board.ID).Return(nil, errors.New("connection reset"))
		_, err := s.service.BoardTopics(s.ctx, s.board.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestCreateBoard() {
	s.Run("duplicate name is a field error", func() {
		s.store.EXPECT().CreateBoard(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.CreateBoard(s.ctx, &models.NewBoardRequest{Name: "Django", Description: "again"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.True(dErrors.FieldsOf(err).Has("name"))
	})

	s.Run("name too long", func() {
		_, err := s.service.CreateBoard(s.ctx, &models.NewBoardRequest{Name: strings.Repeat("x", models.MaxBoardNameLength+1)})
		s.True(dErrors.FieldsOf(err).Has("name"))
	})

	s.Run("created", func() {
		s.store.EXPECT().CreateBoard(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, board *models.Board) error {
				board.ID = 4
				return nil
			})
		board, err := s.service.CreateBoard(s.ctx, &models.NewBoardRequest{Name: " Python ", Description: "Snakes"})
		s.Require().NoError(err)
		s.Equal(id.BoardID(4), board.ID)
		s.Equal("Python", board.Name)
		s.True(board.CreatedAt.Equal(s.now))
	})
}
