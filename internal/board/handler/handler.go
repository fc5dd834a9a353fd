package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"boards/internal/board/models"
	"boards/internal/transport/http/shared"
	"boards/internal/web/views"
	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
	"boards/pkg/platform/httputil"
	authmw "boards/pkg/platform/middleware/auth"
	"boards/pkg/requestcontext"
)

// Service is the board workflow surface used by the HTML handlers.
type Service interface {
	ListBoards(ctx context.Context) ([]models.BoardSummary, error)
	GetBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error)
	BoardTopics(ctx context.Context, boardID id.BoardID, rawPage string) (*models.BoardTopics, error)
	StartTopic(ctx context.Context, caller id.Caller, boardID id.BoardID, req *models.NewTopicRequest) (*models.Topic, error)
	Reply(ctx context.Context, caller id.Caller, boardID id.BoardID, topicID id.TopicID, req *models.ReplyRequest) (*models.ReplyResult, error)
	TopicPosts(ctx context.Context, boardID id.BoardID, topicID id.TopicID, rawPage string) (*models.TopicPosts, error)
}

// Handler serves the board, topic and post pages.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new board Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the board routes with the chi router. Writing routes
// redirect anonymous visitors to the login page before the board or topic is
// looked up.
func (h *Handler) Register(r chi.Router) {
	requireLogin := authmw.RequireLogin(shared.LoginPath)

	r.Get("/", h.handleHome)
	r.Route("/boards/{boardID}", func(r chi.Router) {
		r.Get("/", h.handleBoardTopics)
		r.With(requireLogin).Get("/new/", h.handleNewTopicForm)
		r.With(requireLogin).Post("/new/", h.handleNewTopic)
		r.Get("/topics/{topicID}/", h.handleTopicPosts)
		r.With(requireLogin).Get("/topics/{topicID}/reply/", h.handleReplyForm)
		r.With(requireLogin).Post("/topics/{topicID}/reply/", h.handleReply)
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	boards, err := h.service.ListBoards(r.Context())
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.Render(w, r, h.logger, http.StatusOK, views.Home(boards))
}

func (h *Handler) handleBoardTopics(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}
	bt, err := h.service.BoardTopics(r.Context(), boardID, r.URL.Query().Get("page"))
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.Render(w, r, h.logger, http.StatusOK, views.BoardTopics(bt))
}

func (h *Handler) handleNewTopicForm(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}
	board, err := h.service.GetBoard(r.Context(), boardID)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.Render(w, r, h.logger, http.StatusOK, views.NewTopic(board, views.NewTopicForm{}))
}

func (h *Handler) handleNewTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed form"))
		return
	}

	form := views.NewTopicForm{
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	}
	req := &models.NewTopicRequest{Subject: form.Subject, Message: form.Message}
	topic, err := h.service.StartTopic(ctx, requestcontext.Caller(ctx), boardID, req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		board, lookupErr := h.service.GetBoard(ctx, boardID)
		if lookupErr != nil {
			shared.WriteError(w, r, h.logger, lookupErr)
			return
		}
		form.Errors = dErrors.FieldsOf(err)
		shared.Render(w, r, h.logger, http.StatusOK, views.NewTopic(board, form))
		return
	}
	httputil.SeeOther(w, r, views.TopicURL(boardID, topic.ID))
}

func (h *Handler) handleTopicPosts(w http.ResponseWriter, r *http.Request) {
	boardID, topicID, ok := h.topicIDs(w, r)
	if !ok {
		return
	}
	tp, err := h.service.TopicPosts(r.Context(), boardID, topicID, r.URL.Query().Get("page"))
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.Render(w, r, h.logger, http.StatusOK, views.TopicPosts(tp))
}

func (h *Handler) handleReplyForm(w http.ResponseWriter, r *http.Request) {
	boardID, topicID, ok := h.topicIDs(w, r)
	if !ok {
		return
	}
	h.renderReply(w, r, boardID, topicID, views.ReplyForm{})
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID, topicID, ok := h.topicIDs(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed form"))
		return
	}

	form := views.ReplyForm{Message: r.PostForm.Get("message")}
	result, err := h.service.Reply(ctx, requestcontext.Caller(ctx), boardID, topicID, &models.ReplyRequest{Message: form.Message})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		form.Errors = dErrors.FieldsOf(err)
		h.renderReply(w, r, boardID, topicID, form)
		return
	}
	httputil.SeeOther(w, r, views.PostURL(boardID, topicID, result.Page, result.Post.ID))
}

// renderReply shows the reply form above the topic's latest page of posts.
func (h *Handler) renderReply(w http.ResponseWriter, r *http.Request, boardID id.BoardID, topicID id.TopicID, form views.ReplyForm) {
	tp, err := h.service.TopicPosts(r.Context(), boardID, topicID, "last")
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	tc := &models.TopicContext{Board: tp.Board, Topic: tp.Topic}
	shared.Render(w, r, h.logger, http.StatusOK, views.Reply(tc, tp.Page.Items, form))
}

func (h *Handler) boardID(w http.ResponseWriter, r *http.Request) (id.BoardID, bool) {
	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		shared.NotFound(w, r, h.logger)
		return 0, false
	}
	return boardID, true
}

func (h *Handler) topicIDs(w http.ResponseWriter, r *http.Request) (id.BoardID, id.TopicID, bool) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return 0, 0, false
	}
	topicID, err := id.ParseTopicID(chi.URLParam(r, "topicID"))
	if err != nil {
		shared.NotFound(w, r, h.logger)
		return 0, 0, false
	}
	return boardID, topicID, true
}
