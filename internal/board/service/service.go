// Package service implements the board workflows: listing boards, topics and
// posts, starting topics and replying to them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"boards/internal/board/metrics"
	"boards/internal/board/models"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/sentinel"
	"boards/pkg/requestcontext"
)

const (
	DefaultTopicsPerPage = 20
	DefaultPostsPerPage  = 20
)

// Store is the persistence the workflows need. Every method joins the
// transaction carried by ctx.
type Store interface {
	CreateBoard(ctx context.Context, board *models.Board) error
	FindBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error)
	ListBoards(ctx context.Context) ([]models.BoardSummary, error)
	CountTopics(ctx context.Context, boardID id.BoardID) (int, error)
	ListTopics(ctx context.Context, boardID id.BoardID, limit, offset int) ([]models.TopicSummary, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error
	FindTopic(ctx context.Context, boardID id.BoardID, topicID id.TopicID) (*models.Topic, error)
	TouchTopic(ctx context.Context, topicID id.TopicID, at time.Time) error
	CreatePost(ctx context.Context, post *models.Post) error
	CountPosts(ctx context.Context, topicID id.TopicID) (int, error)
	ListPosts(ctx context.Context, topicID id.TopicID, limit, offset int) ([]models.PostView, error)
	PostOrdinal(ctx context.Context, postID id.PostID) (int, error)
}

// TxRunner runs fn in a transaction carried by the context it passes to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditPublisher records content events. Emit is called inside the write
// transaction; an error aborts the write.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates board, topic and post workflows.
type Service struct {
	store          Store
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	topicsPerPage  int
	postsPerPage   int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPageSizes overrides the listing page sizes. Non-positive values keep the default.
func WithPageSizes(topicsPerPage, postsPerPage int) Option {
	return func(s *Service) {
		if topicsPerPage > 0 {
			s.topicsPerPage = topicsPerPage
		}
		if postsPerPage > 0 {
			s.postsPerPage = postsPerPage
		}
	}
}

// New constructs a Service.
func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		store:         store,
		tx:            tx,
		tracer:        otel.Tracer("boards/internal/board/service"),
		topicsPerPage: DefaultTopicsPerPage,
		postsPerPage:  DefaultPostsPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostsPerPage is the page size used for topic post listings.
func (s *Service) PostsPerPage() int {
	return s.postsPerPage
}

// CreateBoard is the administrative entry point for adding a board.
func (s *Service) CreateBoard(ctx context.Context, req *models.NewBoardRequest) (*models.Board, error) {
	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	board, err := models.NewBoard(req.Name, req.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid board")
	}
	if err := s.store.CreateBoard(ctx, board); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			errs := req.Validate()
			errs.Add("name", "Board with this Name already exists.")
			return nil, dErrors.Validation(errs)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create board")
	}

	s.logAudit(ctx, string(audit.EventBoardCreated),
		"board_id", board.ID,
		"board_name", board.Name)
	return board, nil
}

// ListBoards returns every board with its activity counters, ordered by name.
func (s *Service) ListBoards(ctx context.Context) ([]models.BoardSummary, error) {
	start := time.Now()
	defer s.observeListBoards(start)

	ctx, span := s.tracer.Start(ctx, "board.ListBoards")
	defer span.End()

	boards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list boards")
	}
	return boards, nil
}

// GetBoard fetches a single board.
func (s *Service) GetBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error) {
	board, err := s.store.FindBoard(ctx, boardID)
	if err != nil {
		return nil, translateNotFound(err, "board not found", "failed to load board")
	}
	return board, nil
}

// BoardTopics returns one page of a board's topics, most recently active first.
// rawPage is the unparsed ?page= value.
func (s *Service) BoardTopics(ctx context.Context, boardID id.BoardID, rawPage string) (*models.BoardTopics, error) {
	ctx, span := s.tracer.Start(ctx, "board.BoardTopics", trace.WithAttributes(
		attribute.Int64("board.id", int64(boardID)),
	))
	defer span.End()

	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	pageReq, err := models.ParsePage(rawPage)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountTopics(ctx, boardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count topics")
	}
	number, err := pageReq.Resolve(total, s.topicsPerPage)
	if err != nil {
		return nil, err
	}

	page := models.NewPage[models.TopicSummary](nil, number, total, s.topicsPerPage)
	page.Items, err = s.store.ListTopics(ctx, boardID, s.topicsPerPage, page.Offset())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list topics")
	}
	return &models.BoardTopics{Board: board, Page: page}, nil
}

// StartTopic creates a topic together with its opening post.
//
// Order of checks: an anonymous caller is rejected before the board is
// looked up, and a missing board is reported before the input is validated.
// Nothing is written unless every check passes.
func (s *Service) StartTopic(ctx context.Context, caller id.Caller, boardID id.BoardID, req *models.NewTopicRequest) (*models.Topic, error) {
	start := time.Now()
	defer s.observeStartTopic(start)

	ctx, span := s.tracer.Start(ctx, "board.StartTopic", trace.WithAttributes(
		attribute.Int64("board.id", int64(boardID)),
	))
	defer span.End()

	if !caller.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	now := requestcontext.Now(ctx)
	var topic *models.Topic
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		topic, err = models.NewTopic(board.ID, req.Subject, caller.UserID, now)
		if err != nil {
			return err
		}
		if err := s.store.CreateTopic(ctx, topic); err != nil {
			return err
		}
		post, err := models.NewPost(topic.ID, req.Message, caller.UserID, now)
		if err != nil {
			return err
		}
		if err := s.store.CreatePost(ctx, post); err != nil {
			return err
		}
		return s.emitAudit(ctx, caller.UserID, audit.EventTopicCreated, "topic:"+topic.ID.String())
	})
	if err != nil {
		return nil, s.translateWriteError(err, "failed to start topic")
	}

	s.logAudit(ctx, string(audit.EventTopicCreated),
		"user_id", caller.UserID,
		"board_id", board.ID,
		"topic_id", topic.ID)
	s.incrementTopicsCreated()
	s.incrementPostsCreated()
	return topic, nil
}

// GetTopic resolves a (board, topic) pair. A topic that exists under a
// different board is not found.
func (s *Service) GetTopic(ctx context.Context, boardID id.BoardID, topicID id.TopicID) (*models.TopicContext, error) {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.FindTopic(ctx, boardID, topicID)
	if err != nil {
		return nil, translateNotFound(err, "topic not found", "failed to load topic")
	}
	return &models.TopicContext{Board: board, Topic: topic}, nil
}

// Reply appends a post to a topic and bumps the topic's last activity. The
// result carries the page of the topic listing the new post lands on.
func (s *Service) Reply(ctx context.Context, caller id.Caller, boardID id.BoardID, topicID id.TopicID, req *models.ReplyRequest) (*models.ReplyResult, error) {
	start := time.Now()
	defer s.observeReply(start)

	ctx, span := s.tracer.Start(ctx, "board.Reply", trace.WithAttributes(
		attribute.Int64("board.id", int64(boardID)),
		attribute.Int64("topic.id", int64(topicID)),
	))
	defer span.End()

	if !caller.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	tc, err := s.GetTopic(ctx, boardID, topicID)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if errs := req.Validate(); errs.Any() {
		return nil, dErrors.Validation(errs)
	}

	now := requestcontext.Now(ctx)
	result := &models.ReplyResult{}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		post, err := models.NewPost(tc.Topic.ID, req.Message, caller.UserID, now)
		if err != nil {
			return err
		}
		if err := s.store.CreatePost(ctx, post); err != nil {
			return err
		}
		if err := s.store.TouchTopic(ctx, tc.Topic.ID, now); err != nil {
			return err
		}
		ordinal, err := s.store.PostOrdinal(ctx, post.ID)
		if err != nil {
			return err
		}
		result.Post = post
		result.Page = models.PageOf(ordinal, s.postsPerPage)
		return s.emitAudit(ctx, caller.UserID, audit.EventPostCreated, "post:"+post.ID.String())
	})
	if err != nil {
		return nil, s.translateWriteError(err, "failed to reply")
	}

	s.logAudit(ctx, string(audit.EventPostCreated),
		"user_id", caller.UserID,
		"topic_id", tc.Topic.ID,
		"post_id", result.Post.ID)
	s.incrementPostsCreated()
	return result, nil
}

// TopicPosts returns one page of a topic's posts in reading order.
func (s *Service) TopicPosts(ctx context.Context, boardID id.BoardID, topicID id.TopicID, rawPage string) (*models.TopicPosts, error) {
	ctx, span := s.tracer.Start(ctx, "board.TopicPosts", trace.WithAttributes(
		attribute.Int64("board.id", int64(boardID)),
		attribute.Int64("topic.id", int64(topicID)),
	))
	defer span.End()

	tc, err := s.GetTopic(ctx, boardID, topicID)
	if err != nil {
		return nil, err
	}
	pageReq, err := models.ParsePage(rawPage)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountPosts(ctx, topicID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count posts")
	}
	number, err := pageReq.Resolve(total, s.postsPerPage)
	if err != nil {
		return nil, err
	}

	page := models.NewPage[models.PostView](nil, number, total, s.postsPerPage)
	page.Items, err = s.store.ListPosts(ctx, topicID, s.postsPerPage, page.Offset())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts")
	}
	return &models.TopicPosts{Board: tc.Board, Topic: tc.Topic, Page: page}, nil
}

func translateNotFound(err error, notFound, internal string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}

// translateWriteError maps failures raised inside a write transaction. A row
// that vanished between the lookup and the insert is reported as not found.
func (s *Service) translateWriteError(err error, message string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
