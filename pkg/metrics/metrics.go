package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="reviews"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		// Бакеты от 1ms до 10s
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Метрики транзакционного движка (optimistic concurrency)
// =============================================================================

// TxAttemptsTotal - количество попыток выполнения транзакции (включая ретраи)
// Labels: service, operation (submit_rating, toggle_like, reserve_username...)
var TxAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tx_attempts_total",
		Help: "Total number of optimistic transaction attempts including retries",
	},
	[]string{"service", "operation"},
)

// TxConflictsTotal - конфликты версий, приведшие к ретраю
var TxConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tx_conflicts_total",
		Help: "Total number of optimistic concurrency conflicts",
	},
	[]string{"service", "operation"},
)

// TxRetriesExhaustedTotal - транзакции, исчерпавшие лимит ретраев
var TxRetriesExhaustedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tx_retries_exhausted_total",
		Help: "Total number of transactions that exhausted the retry budget",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения запросов к БД
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of messages produced to Kafka",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business Метрики (специфичные для Rowanberries)
// =============================================================================

// RatingsSubmitted - принятые оценки постов
var RatingsSubmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "ratings_submitted_total",
		Help: "Total number of accepted member ratings",
	},
)

// LikesToggled - переключения лайков
// Labels: state (on/off)
var LikesToggled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "likes_toggled_total",
		Help: "Total number of comment like toggles",
	},
	[]string{"state"},
)

// UsernamesReserved - результаты резервирования username
// Labels: result (reserved/taken)
var UsernamesReserved = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "usernames_reserved_total",
		Help: "Total number of username reservation attempts",
	},
	[]string{"result"},
)

// ReservationsSwept - удалённые просроченные provisional резервации
var ReservationsSwept = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "username_reservations_swept_total",
		Help: "Total number of stale provisional username reservations deleted",
	},
)

// MembersRegistered - успешные регистрации
var MembersRegistered = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "members_registered_total",
		Help: "Total number of registered members",
	},
)
