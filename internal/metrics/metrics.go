package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reader metrics
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_messages_received_total",
			Help: "Total number of messages received from the remote queue",
		},
		[]string{"queue"},
	)

	MessagesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_messages_deleted_total",
			Help: "Total number of messages deleted from the remote queue",
		},
		[]string{"queue", "reason"},
	)

	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_decode_errors_total",
			Help: "Total number of messages that failed to decode",
		},
		[]string{"queue"},
	)

	InternalQueuePutTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_internal_queue_put_timeouts_total",
			Help: "Total number of times a ReadWorker timed out handing a message to the internal queue",
		},
		[]string{"queue"},
	)

	InternalQueueDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_internal_queue_dropped_total",
			Help: "Total number of locally-buffered messages dropped after their visibility timeout expired",
		},
		[]string{"queue"},
	)

	// Processor metrics
	ResolutionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_resolution_errors_total",
			Help: "Total number of invocations whose task name failed to resolve",
		},
		[]string{"task"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_tasks_processed_total",
			Help: "Total number of tasks processed, by outcome",
		},
		[]string{"task", "outcome"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pyqs_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"task"},
	)

	// Internal queue metrics
	InternalQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pyqs_internal_queue_depth",
			Help: "Current number of invocations buffered in the internal queue",
		},
	)

	// Manager/supervision metrics
	ActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pyqs_active_workers",
			Help: "Current number of running workers by role",
		},
		[]string{"role"},
	)

	WorkerRespawns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_worker_respawns_total",
			Help: "Total number of times the manager respawned a worker after an unexpected exit",
		},
		[]string{"role"},
	)

	// Poison log metrics
	PoisonMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_poison_messages_total",
			Help: "Total number of messages recorded to the poison log",
		},
		[]string{"reason"},
	)

	// HTTP metrics for the admin API
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pyqs_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_http_requests_total",
			Help: "Total number of admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebSocket metrics for the live dashboard
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pyqs_websocket_connections",
			Help: "Current number of connected dashboard WebSocket clients",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_websocket_messages_total",
			Help: "Total number of WebSocket messages sent to dashboard clients",
		},
		[]string{"type"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyqs_rate_limit_rejections_total",
			Help: "Total number of admin API requests rejected by a rate limiter",
		},
		[]string{"scope"},
	)
)

func RecordMessageReceived(queue string)             { MessagesReceived.WithLabelValues(queue).Inc() }
func RecordMessageDeleted(queue, reason string)       { MessagesDeleted.WithLabelValues(queue, reason).Inc() }
func RecordDecodeError(queue string)                  { DecodeErrors.WithLabelValues(queue).Inc() }
func RecordPutTimeout(queue string)                   { InternalQueuePutTimeouts.WithLabelValues(queue).Inc() }
func RecordDropped(queue string, n int)               { InternalQueueDropped.WithLabelValues(queue).Add(float64(n)) }
func RecordResolutionError(task string)               { ResolutionErrors.WithLabelValues(task).Inc() }
func RecordPoisonMessage(reason string)               { PoisonMessagesTotal.WithLabelValues(reason).Inc() }
func SetInternalQueueDepth(depth float64)             { InternalQueueDepth.Set(depth) }
func SetActiveWorkers(role string, count float64)     { ActiveWorkers.WithLabelValues(role).Set(count) }
func RecordWorkerRespawn(role string)                 { WorkerRespawns.WithLabelValues(role).Inc() }
func SetWebSocketConnections(count float64)           { WebSocketConnections.Set(count) }
func RecordWebSocketMessage(msgType string)           { WebSocketMessages.WithLabelValues(msgType).Inc() }
func RecordRateLimitRejected(scope string)             { RateLimitRejections.WithLabelValues(scope).Inc() }

func RecordTaskProcessed(task, outcome string, duration float64) {
	TasksProcessed.WithLabelValues(task, outcome).Inc()
	TaskDuration.WithLabelValues(task).Observe(duration)
}

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
