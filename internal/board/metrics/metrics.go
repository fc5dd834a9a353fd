package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the board module.
// Tracks topic/post creation counts and write path durations.
type Metrics struct {
	TopicsCreated      prometheus.Counter
	PostsCreated       prometheus.Counter
	StartTopicDuration prometheus.Histogram
	ReplyDuration      prometheus.Histogram
	ListBoardsDuration prometheus.Histogram
}

// New creates a new Metrics instance with all board module metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TopicsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "boards_topics_created_total",
			Help: "Total number of topics started",
		}),
		PostsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "boards_posts_created_total",
			Help: "Total number of posts written, including opening posts",
		}),
		StartTopicDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "boards_start_topic_duration_seconds",
			Help:    "Duration of StartTopic operations (topic, opening post and audit in one transaction)",
			Buckets: durationBuckets,
		}),
		ReplyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "boards_reply_duration_seconds",
			Help:    "Duration of Reply operations",
			Buckets: durationBuckets,
		}),
		ListBoardsDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "boards_list_boards_duration_seconds",
			Help:    "Duration of ListBoards operations (home page with counters)",
			Buckets: durationBuckets,
		}),
	}
}

// IncrementTopicsCreated records a started topic. Its opening post is counted separately.
func (m *Metrics) IncrementTopicsCreated() {
	m.TopicsCreated.Inc()
}

func (m *Metrics) IncrementPostsCreated() {
	m.PostsCreated.Inc()
}

// ObserveStartTopic records the duration of a StartTopic operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStartTopic(start time.Time) {
	m.StartTopicDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveReply(start time.Time) {
	m.ReplyDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveListBoards(start time.Time) {
	m.ListBoardsDuration.Observe(time.Since(start).Seconds())
}
