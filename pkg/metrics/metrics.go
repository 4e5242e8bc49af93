// Package metrics registers the Prometheus collectors exported on the private listener
// Package metrics 注册在私有端口导出的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revision_service"

var (
	// RevisionsCreated counts committed revisions.
	// Labels: change_type (create, update, restore, manual)
	RevisionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "revision",
		Name:      "created_total",
		Help:      "Total committed revisions",
	}, []string{"change_type"})

	// CommitRetries counts version commits retried after a uniqueness violation.
	CommitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "revision",
		Name:      "commit_retries_total",
		Help:      "Version commits retried after a duplicate version",
	})

	// VersionConflicts counts commits that exhausted the retry budget.
	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "revision",
		Name:      "version_conflicts_total",
		Help:      "Commits that exhausted the retry budget",
	})

	// RestoreInconsistencies counts restores where the article moved but history was not written.
	RestoreInconsistencies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "restore",
		Name:      "inconsistent_total",
		Help:      "Restores whose history write failed after the article update",
	})

	// AuditFindings counts articles flagged by the integrity audit.
	// Labels: kind (gap, drift)
	AuditFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "findings_total",
		Help:      "Articles flagged by the revision integrity audit",
	}, []string{"kind"})

	// HTTPRequestDuration measures API latency.
	// Labels: method, route, code
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)
