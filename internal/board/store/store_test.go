package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"boards/internal/board/models"
	"boards/internal/board/store"
	"boards/internal/platform/database"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
	"boards/pkg/testutil"
)

type StoreSuite struct {
	suite.Suite
	openDB func(t testing.TB) *database.DB
	db     *database.DB
	store  *store.Store
	base   time.Time
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{openDB: testutil.NewSQLiteDB})
}

func (s *StoreSuite) SetupTest() {
	s.db = s.openDB(s.T())
	s.store = store.New(s.db)
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) createUser(username string) id.UserID {
	var userID int64
	err := s.db.QueryRowContext(context.Background(),
		s.db.Rebind(`INSERT INTO users (username, password_hash, date_joined) VALUES (?, '', ?) RETURNING id`),
		username, s.base).Scan(&userID)
	s.Require().NoError(err)
	return id.UserID(userID)
}

func (s *StoreSuite) createBoard(name string) *models.Board {
	board, err := models.NewBoard(name, name+" discussion", s.base)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBoard(context.Background(), board))
	return board
}

func (s *StoreSuite) createTopic(boardID id.BoardID, starter id.UserID, subject string, at time.Time) *models.Topic {
	ctx := context.Background()
	topic, err := models.NewTopic(boardID, subject, starter, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateTopic(ctx, topic))
	s.createPost(topic.ID, starter, "opening "+subject, at)
	return topic
}

func (s *StoreSuite) createPost(topicID id.TopicID, author id.UserID, message string, at time.Time) *models.Post {
	post, err := models.NewPost(topicID, message, author, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreatePost(context.Background(), post))
	return post
}

func (s *StoreSuite) TestBoards() {
	ctx := context.Background()

	s.Run("create assigns id and find returns it", func() {
		board := s.createBoard("Django")
		s.NotZero(board.ID)

		found, err := s.store.FindBoard(ctx, board.ID)
		s.Require().NoError(err)
		s.Equal("Django", found.Name)
		s.Equal("Django discussion", found.Description)
		s.True(found.CreatedAt.Equal(s.base))
	})

	s.Run("duplicate name is a conflict", func() {
		board, err := models.NewBoard("Django", "again", s.base)
		s.Require().NoError(err)
		err = s.store.CreateBoard(ctx, board)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown board is not found", func() {
		_, err := s.store.FindBoard(ctx, 99)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestListBoardsSummaries() {
	ctx := context.Background()
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	python := s.createBoard("Python")
	django := s.createBoard("Django")
	s.createBoard("Empty")

	first := s.createTopic(django.ID, alice, "Hello", s.base.Add(time.Minute))
	s.createPost(first.ID, bob, "Hi", s.base.Add(2*time.Minute))
	s.createTopic(django.ID, bob, "Second", s.base.Add(3*time.Minute))
	py := s.createTopic(python.ID, alice, "Typing", s.base.Add(4*time.Minute))
	latest := s.createPost(py.ID, bob, "mypy", s.base.Add(5*time.Minute))

	summaries, err := s.store.ListBoards(ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 3)

	s.Equal("Django", summaries[0].Name)
	s.Equal(2, summaries[0].TopicCount)
	s.Equal(3, summaries[0].PostCount)
	s.Require().NotNil(summaries[0].LastPost)
	s.Equal("bob", summaries[0].LastPost.Author)

	s.Equal("Empty", summaries[1].Name)
	s.Zero(summaries[1].TopicCount)
	s.Nil(summaries[1].LastPost)

	s.Equal("Python", summaries[2].Name)
	s.Require().NotNil(summaries[2].LastPost)
	s.Equal(latest.ID, summaries[2].LastPost.PostID)
	s.Equal(py.ID, summaries[2].LastPost.TopicID)
}

func (s *StoreSuite) TestTopics() {
	ctx := context.Background()
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	board := s.createBoard("Django")
	other := s.createBoard("Python")

	older := s.createTopic(board.ID, alice, "Older", s.base)
	newer := s.createTopic(board.ID, bob, "Newer", s.base.Add(time.Minute))
	s.createPost(older.ID, bob, "reply one", s.base.Add(2*time.Minute))
	s.createPost(older.ID, bob, "reply two", s.base.Add(3*time.Minute))

	s.Run("touch moves topic to the top", func() {
		s.Require().NoError(s.store.TouchTopic(ctx, older.ID, s.base.Add(3*time.Minute)))

		topics, err := s.store.ListTopics(ctx, board.ID, 10, 0)
		s.Require().NoError(err)
		s.Require().Len(topics, 2)
		s.Equal(older.ID, topics[0].ID)
		s.Equal("alice", topics[0].StarterName)
		s.Equal(2, topics[0].Replies)
		s.Equal(newer.ID, topics[1].ID)
		s.Zero(topics[1].Replies)
	})

	s.Run("limit and offset page through topics", func() {
		topics, err := s.store.ListTopics(ctx, board.ID, 1, 1)
		s.Require().NoError(err)
		s.Require().Len(topics, 1)
		s.Equal(newer.ID, topics[0].ID)
	})

	s.Run("count", func() {
		n, err := s.store.CountTopics(ctx, board.ID)
		s.Require().NoError(err)
		s.Equal(2, n)

		n, err = s.store.CountTopics(ctx, other.ID)
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("find is scoped to the board", func() {
		found, err := s.store.FindTopic(ctx, board.ID, newer.ID)
		s.Require().NoError(err)
		s.Equal("Newer", found.Subject)
		s.Equal(bob, found.StarterID)

		_, err = s.store.FindTopic(ctx, other.ID, newer.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("touching an unknown topic is not found", func() {
		err := s.store.TouchTopic(ctx, 999, s.base)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestPosts() {
	ctx := context.Background()
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	board := s.createBoard("Django")
	topic := s.createTopic(board.ID, alice, "Hello", s.base)

	var replies []*models.Post
	for i := range 4 {
		replies = append(replies, s.createPost(topic.ID, bob, "reply", s.base.Add(time.Duration(i+1)*time.Minute)))
	}
	// Same timestamp as the last reply; the id breaks the tie.
	tied := s.createPost(topic.ID, alice, "tied", s.base.Add(4*time.Minute))

	s.Run("count includes the opening post", func() {
		n, err := s.store.CountPosts(ctx, topic.ID)
		s.Require().NoError(err)
		s.Equal(6, n)
	})

	s.Run("list in reading order", func() {
		posts, err := s.store.ListPosts(ctx, topic.ID, 10, 0)
		s.Require().NoError(err)
		s.Require().Len(posts, 6)
		s.Equal("opening Hello", posts[0].Message)
		s.Equal("alice", posts[0].AuthorName)
		s.Nil(posts[0].UpdatedAt)
		s.Nil(posts[0].UpdatedBy)
		s.Equal(replies[0].ID, posts[1].ID)
		s.Equal(tied.ID, posts[5].ID)
	})

	s.Run("ordinal", func() {
		n, err := s.store.PostOrdinal(ctx, replies[0].ID)
		s.Require().NoError(err)
		s.Equal(2, n)

		n, err = s.store.PostOrdinal(ctx, tied.ID)
		s.Require().NoError(err)
		s.Equal(6, n)
	})

	s.Run("ordinal of unknown post", func() {
		_, err := s.store.PostOrdinal(ctx, 12345)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("post for unknown topic fails", func() {
		post, err := models.NewPost(999, "orphan", alice, s.base)
		s.Require().NoError(err)
		s.Error(s.store.CreatePost(ctx, post))
	})
}

func (s *StoreSuite) TestTransactionRollback() {
	ctx := context.Background()
	alice := s.createUser("alice")
	board := s.createBoard("Django")

	err := s.db.RunInTx(ctx, func(ctx context.Context) error {
		topic, err := models.NewTopic(board.ID, "Doomed", alice, s.base)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateTopic(ctx, topic))
		post, err := models.NewPost(topic.ID, "", alice, s.base)
		s.Require().NoError(err)
		post.TopicID = 999
		return s.store.CreatePost(ctx, post)
	})
	s.Require().Error(err)

	n, err := s.store.CountTopics(ctx, board.ID)
	s.Require().NoError(err)
	s.Zero(n)
}
