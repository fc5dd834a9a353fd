package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registrations, sign-ins and login latency.
type Metrics struct {
	UsersCreated    prometheus.Counter
	LoginsFailed    prometheus.Counter
	SessionsCreated prometheus.Counter
	LoginDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "boards_users_created_total",
			Help: "Total number of registered users",
		}),
		LoginsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "boards_logins_failed_total",
			Help: "Total number of rejected login attempts",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "boards_sessions_created_total",
			Help: "Total number of sessions opened by sign-up or login",
		}),
		LoginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "boards_login_duration_seconds",
			Help: "Duration of login attempts, dominated by the bcrypt comparison",
			// bcrypt at the default cost lands around 50-100ms
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementLoginsFailed() {
	m.LoginsFailed.Inc()
}

func (m *Metrics) IncrementSessionsCreated() {
	m.SessionsCreated.Inc()
}

// ObserveLogin records the duration of a login attempt started at start.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
