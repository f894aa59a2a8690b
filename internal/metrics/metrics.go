package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the matching engine.
type Metrics struct {
	RequestsCreated  prometheus.Counter
	MatchesNotified  prometheus.Counter
	AcceptsWon       prometheus.Counter
	AcceptConflicts  *prometheus.CounterVec
	RequestsExpired  prometheus.Counter
	PoolFallbacks    prometheus.Counter
	AlertsPublished  prometheus.Counter
	AlertPublishErrs prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default
// registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer; tests use a
// fresh registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_requests_created_total",
			Help: "Total number of emergency requests created",
		}),
		MatchesNotified: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_matches_notified_total",
			Help: "Total number of donor matches created in NOTIFIED state",
		}),
		AcceptsWon: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_accepts_won_total",
			Help: "Total number of successful accept operations",
		}),
		AcceptConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donor_match_accept_conflicts_total",
			Help: "Total number of accept operations rejected with a conflict, by reason",
		}, []string{"reason"}),
		RequestsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_requests_expired_total",
			Help: "Total number of requests reclassified as EXPIRED",
		}),
		PoolFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_pool_fallbacks_total",
			Help: "Total number of candidate pool queries that fell back from the geo index to the database",
		}),
		AlertsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_alerts_published_total",
			Help: "Total number of outbox events published to the broker",
		}),
		AlertPublishErrs: factory.NewCounter(prometheus.CounterOpts{
			Name: "donor_match_alert_publish_errors_total",
			Help: "Total number of failed broker publishes",
		}),
	}
}
