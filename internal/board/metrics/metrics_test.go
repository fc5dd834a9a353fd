package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAndDurations(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementTopicsCreated()
	m.IncrementPostsCreated()
	m.IncrementPostsCreated()
	m.ObserveStartTopic(time.Now())
	m.ObserveReply(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TopicsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PostsCreated))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StartTopicDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReplyDuration))
}
