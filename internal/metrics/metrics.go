package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marksync_mutations_total",
		Help: "Bookmark create/delete requests by operation and outcome.",
	}, []string{"op", "status"})

	SnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marksync_snapshots_total",
		Help: "Full bookmark list reads served.",
	})

	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marksync_feed_clients",
		Help: "Currently connected change-feed subscribers.",
	})

	FeedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marksync_feed_events_total",
		Help: "Change-feed events published by type.",
	}, []string{"type"})

	FeedDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marksync_feed_dropped_total",
		Help: "Change-feed events dropped due to slow subscribers.",
	})

	BookmarksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marksync_bookmarks_total",
		Help: "Total number of bookmarks in the database.",
	})

	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marksync_users_total",
		Help: "Total number of registered users in the database.",
	})
)
