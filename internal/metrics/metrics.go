package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebhookEvents counts received identity webhook deliveries by
	// event type and outcome.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lm_webhook_events_total",
		Help: "Identity webhook deliveries by event type and outcome.",
	}, []string{"event", "outcome"})

	// Allocations counts lmid claim attempts by result.
	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lm_lmid_allocations_total",
		Help: "LMID allocation attempts by result.",
	}, []string{"result"})

	// PlaylistBuilds counts playlist manifests assembled, by delivery
	// mode (cdn upload vs inline fallback).
	PlaylistBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lm_playlist_builds_total",
		Help: "Playlist manifests built, by delivery mode.",
	}, []string{"delivery"})

	// NotificationsEnqueued counts accepted notification requests by
	// recipient role and language.
	NotificationsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lm_notifications_enqueued_total",
		Help: "Notification dispatch requests accepted for delivery.",
	}, []string{"type", "language"})
)

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
