package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jimiolaniyan/agencyauth/auth"
)

// Metrics holds the HTTP request metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agencyauth_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agencyauth_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Instrument wraps next with counters and latency for route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), next))
}

// AuthEvents counts account lifecycle events. It implements auth.Events.
type AuthEvents struct {
	created prometheus.Counter
	logins  *prometheus.CounterVec
	updated prometheus.Counter
	deleted prometheus.Counter
}

var _ auth.Events = (*AuthEvents)(nil)

func NewAuthEvents(reg prometheus.Registerer) *AuthEvents {
	e := &AuthEvents{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agencyauth_accounts_created_total",
			Help: "Accounts created through signup.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agencyauth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agencyauth_accounts_updated_total",
			Help: "Successful account updates.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agencyauth_accounts_deleted_total",
			Help: "Deleted accounts.",
		}),
	}
	reg.MustRegister(e.created, e.logins, e.updated, e.deleted)
	return e
}

func (e *AuthEvents) AccountCreated(auth.ID, string) { e.created.Inc() }
func (e *AuthEvents) LoginSucceeded(auth.ID)         { e.logins.WithLabelValues("success").Inc() }
func (e *AuthEvents) LoginFailed(string)             { e.logins.WithLabelValues("failure").Inc() }
func (e *AuthEvents) AccountUpdated(auth.ID)         { e.updated.Inc() }
func (e *AuthEvents) AccountDeleted(auth.ID)         { e.deleted.Inc() }
