// Package store persists boards, topics and posts in the relational database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boards/internal/board/models"
	"boards/internal/platform/database"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
)

// Store is the SQL-backed board store. Methods join the transaction carried by
// ctx when there is one.
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) exec(ctx context.Context) database.Executor {
	return s.db.Executor(ctx)
}

// CreateBoard inserts a board. Returns sentinel.ErrConflict when the name is taken.
func (s *Store) CreateBoard(ctx context.Context, board *models.Board) error {
	query := s.db.Rebind(`INSERT INTO boards (name, description, created_at) VALUES (?, ?, ?) RETURNING id`)
	var boardID int64
	err := s.exec(ctx).QueryRowContext(ctx, query, board.Name, board.Description, database.Timestamp(board.CreatedAt)).Scan(&boardID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("board %q: %w", board.Name, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert board: %w", err)
	}
	board.ID = id.BoardID(boardID)
	return nil
}

// FindBoard returns sentinel.ErrNotFound for unknown ids.
func (s *Store) FindBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error) {
	query := s.db.Rebind(`SELECT id, name, description, created_at FROM boards WHERE id = ?`)
	var b models.Board
	err := s.exec(ctx).QueryRowContext(ctx, query, int64(boardID)).Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find board: %w", err)
	}
	return &b, nil
}

// ListBoards returns every board ordered by name with topic and post counts and
// the most recent post.
func (s *Store) ListBoards(ctx context.Context) ([]models.BoardSummary, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT b.id, b.name, b.description, b.created_at,
			(SELECT COUNT(*) FROM topics t WHERE t.board_id = b.id),
			(SELECT COUNT(*) FROM posts p JOIN topics t ON t.id = p.topic_id WHERE t.board_id = b.id)
		FROM boards b
		ORDER BY b.name, b.id`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	var summaries []models.BoardSummary
	index := map[id.BoardID]int{}
	for rows.Next() {
		var sum models.BoardSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &sum.CreatedAt, &sum.TopicCount, &sum.PostCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan board: %w", err)
		}
		index[sum.ID] = len(summaries)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	rows.Close()

	lastPosts, err := s.lastPostPerBoard(ctx)
	if err != nil {
		return nil, err
	}
	for boardID, lp := range lastPosts {
		if i, ok := index[boardID]; ok {
			summaries[i].LastPost = lp
		}
	}
	return summaries, nil
}

func (s *Store) lastPostPerBoard(ctx context.Context) (map[id.BoardID]*models.LastPost, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT t.board_id, p.id, p.topic_id, p.created_at, u.username
		FROM posts p
		JOIN topics t ON t.id = p.topic_id
		JOIN users u ON u.id = p.created_by
		WHERE p.id = (
			SELECT p2.id FROM posts p2
			JOIN topics t2 ON t2.id = p2.topic_id
			WHERE t2.board_id = t.board_id
			ORDER BY p2.created_at DESC, p2.id DESC
			LIMIT 1
		)`)
	if err != nil {
		return nil, fmt.Errorf("last posts: %w", err)
	}
	defer rows.Close()

	out := map[id.BoardID]*models.LastPost{}
	for rows.Next() {
		var (
			boardID id.BoardID
			lp      models.LastPost
		)
		if err := rows.Scan(&boardID, &lp.PostID, &lp.TopicID, &lp.CreatedAt, &lp.Author); err != nil {
			return nil, fmt.Errorf("scan last post: %w", err)
		}
		out[boardID] = &lp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate last posts: %w", err)
	}
	return out, nil
}

func (s *Store) CountTopics(ctx context.Context, boardID id.BoardID) (int, error) {
	var n int
	err := s.exec(ctx).QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM topics WHERE board_id = ?`), int64(boardID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return n, nil
}

// ListTopics returns a page of a board's topics, most recently active first.
func (s *Store) ListTopics(ctx context.Context, boardID id.BoardID, limit, offset int) ([]models.TopicSummary, error) {
	query := s.db.Rebind(`
		SELECT t.id, t.board_id, t.subject, t.starter_id, t.created_at, t.last_updated, u.username,
			(SELECT COUNT(*) FROM posts p WHERE p.topic_id = t.id)
		FROM topics t
		JOIN users u ON u.id = t.starter_id
		WHERE t.board_id = ?
		ORDER BY t.last_updated DESC, t.id DESC
		LIMIT ? OFFSET ?`)
	rows, err := s.exec(ctx).QueryContext(ctx, query, int64(boardID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.TopicSummary
	for rows.Next() {
		var (
			ts    models.TopicSummary
			posts int
		)
		err := rows.Scan(&ts.ID, &ts.BoardID, &ts.Subject, &ts.StarterID, &ts.CreatedAt, &ts.LastUpdated, &ts.StarterName, &posts)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		ts.Replies = max(posts-1, 0)
		topics = append(topics, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

// CreateTopic inserts the topic row and sets its ID.
func (s *Store) CreateTopic(ctx context.Context, topic *models.Topic) error {
	query := s.db.Rebind(`
		INSERT INTO topics (subject, board_id, starter_id, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	var topicID int64
	err := s.exec(ctx).QueryRowContext(ctx, query,
		topic.Subject,
		int64(topic.BoardID),
		int64(topic.StarterID),
		database.Timestamp(topic.CreatedAt),
		database.Timestamp(topic.LastUpdated),
	).Scan(&topicID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("topic references: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert topic: %w", err)
	}
	topic.ID = id.TopicID(topicID)
	return nil
}

// FindTopic looks a topic up by (board, topic); a topic under another board is
// reported as sentinel.ErrNotFound.
func (s *Store) FindTopic(ctx context.Context, boardID id.BoardID, topicID id.TopicID) (*models.Topic, error) {
	query := s.db.Rebind(`
		SELECT id, board_id, subject, starter_id, created_at, last_updated
		FROM topics WHERE id = ? AND board_id = ?`)
	var t models.Topic
	err := s.exec(ctx).QueryRowContext(ctx, query, int64(topicID), int64(boardID)).
		Scan(&t.ID, &t.BoardID, &t.Subject, &t.StarterID, &t.CreatedAt, &t.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find topic: %w", err)
	}
	return &t, nil
}

// TouchTopic sets last_updated.
func (s *Store) TouchTopic(ctx context.Context, topicID id.TopicID, at time.Time) error {
	res, err := s.exec(ctx).ExecContext(ctx, s.db.Rebind(`UPDATE topics SET last_updated = ? WHERE id = ?`),
		database.Timestamp(at), int64(topicID))
	if err != nil {
		return fmt.Errorf("touch topic: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CreatePost inserts the post row and sets its ID.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	query := s.db.Rebind(`
		INSERT INTO posts (message, topic_id, created_by, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	var postID int64
	err := s.exec(ctx).QueryRowContext(ctx, query,
		post.Message,
		int64(post.TopicID),
		int64(post.CreatedBy),
		database.Timestamp(post.CreatedAt),
	).Scan(&postID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("post references: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID = id.PostID(postID)
	return nil
}

func (s *Store) CountPosts(ctx context.Context, topicID id.TopicID) (int, error) {
	var n int
	err := s.exec(ctx).QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM posts WHERE topic_id = ?`), int64(topicID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// ListPosts returns a page of a topic's posts in reading order.
func (s *Store) ListPosts(ctx context.Context, topicID id.TopicID, limit, offset int) ([]models.PostView, error) {
	query := s.db.Rebind(`
		SELECT p.id, p.topic_id, p.message, p.created_by, p.created_at, p.updated_at, p.updated_by, u.username
		FROM posts p
		JOIN users u ON u.id = p.created_by
		WHERE p.topic_id = ?
		ORDER BY p.created_at, p.id
		LIMIT ? OFFSET ?`)
	rows, err := s.exec(ctx).QueryContext(ctx, query, int64(topicID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.PostView
	for rows.Next() {
		var (
			pv        models.PostView
			updatedAt sql.NullTime
			updatedBy sql.NullInt64
		)
		err := rows.Scan(&pv.ID, &pv.TopicID, &pv.Message, &pv.CreatedBy, &pv.CreatedAt, &updatedAt, &updatedBy, &pv.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if updatedAt.Valid {
			pv.UpdatedAt = &updatedAt.Time
		}
		if updatedBy.Valid {
			by := id.UserID(updatedBy.Int64)
			pv.UpdatedBy = &by
		}
		posts = append(posts, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// PostOrdinal is the 1-based position of a post within its topic, in reading order.
func (s *Store) PostOrdinal(ctx context.Context, postID id.PostID) (int, error) {
	query := s.db.Rebind(`
		SELECT COUNT(*)
		FROM posts p
		JOIN posts target ON target.topic_id = p.topic_id
		WHERE target.id = ?
			AND (p.created_at < target.created_at OR (p.created_at = target.created_at AND p.id <= target.id))`)
	var n int
	if err := s.exec(ctx).QueryRowContext(ctx, query, int64(postID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("post ordinal: %w", err)
	}
	if n == 0 {
		return 0, sentinel.ErrNotFound
	}
	return n, nil
}
