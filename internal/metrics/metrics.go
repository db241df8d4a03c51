// Package metrics exposes the Prometheus collectors of the app.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskmanager"

var (
	// AuthAttempts counts register, login and logout calls by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Authentication operations by operation and result.",
	}, []string{"operation", "result"})

	GuardRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Requests to protected routes without an active session.",
	})

	TaskListFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_list_failures_total",
		Help:      "Task list fetches that degraded to an empty list.",
	})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Sessions removed by the sweeper after expiring.",
	})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Connected session event stream clients.",
	})
)
