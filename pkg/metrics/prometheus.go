// Package metrics provides Prometheus metrics for the park voting service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rating deltas are bounded by the K-factor, so they get their own buckets.
var ratingDeltaBuckets = []float64{0, 1, 2, 4, 8, 12, 16, 20, 24, 28, 32, 48, 64}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Voting
	votesRecorded    prometheus.Counter
	votesRejected    *prometheus.CounterVec
	votesDuplicate   prometheus.Counter
	ratingDelta      *prometheus.HistogramVec
	rankChanges      prometheus.Histogram
	voteApplyLatency prometheus.Histogram
	matchupsServed   prometheus.Counter
	totalParks       prometheus.Gauge
	totalVotes       prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize           prometheus.Gauge
	queueCapacity       prometheus.Gauge
	queueUtilization    prometheus.Gauge
	queueEnqueued       prometheus.Counter
	queueDequeued       prometheus.Counter
	queueEnqueueErrors  *prometheus.CounterVec
	queueWaitingLatency prometheus.Histogram

	// Worker
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	repositoryTransactions  *prometheus.CounterVec

	// Cache
	cacheRequests *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager.Store(NewManager(WithPrometheusRegistry(customRegistry)))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "parkrank",
		subsystem:        "voting",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Use replaces the manager behind the package-level helpers.
func Use(m *Manager) error {
	if m == nil {
		return ErrNilManager
	}
	globalManager.Store(m)
	return nil
}

func get() *Manager { return globalManager.Load() }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.votesRecorded = auto.NewCounter(m.counterOpts("votes_recorded_total", "Votes applied to the rankings"))
	m.votesRejected = auto.NewCounterVec(m.counterOpts("votes_rejected_total", "Votes rejected before being applied"), []string{"reason"})
	m.votesDuplicate = auto.NewCounter(m.counterOpts("votes_duplicate_total", "Votes dropped because their idempotency key was already used"))
	m.ratingDelta = auto.NewHistogramVec(m.histogramOpts("rating_delta_points", "Absolute Elo change per vote", ratingDeltaBuckets), []string{"side"})
	m.rankChanges = auto.NewHistogram(m.histogramOpts("rank_changes_per_vote", "Parks whose rank moved after a vote", []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55}))
	m.voteApplyLatency = auto.NewHistogram(m.histogramOpts("vote_apply_latency_milliseconds", "Time to apply a vote and re-rank", nil))
	m.matchupsServed = auto.NewCounter(m.counterOpts("matchups_served_total", "Random matchups handed out"))
	m.totalParks = auto.NewGauge(m.gaugeOpts("parks_total", "Parks in the ranking"))
	m.totalVotes = auto.NewGauge(m.gaugeOpts("votes_total", "Votes in the ledger"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Ballots waiting in the vote queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Vote queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Vote queue size / capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Ballots enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Ballots dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total", "Ballots refused by the queue"), []string{"reason"})
	m.queueWaitingLatency = auto.NewHistogram(m.histogramOpts("queue_wait_milliseconds", "Time a ballot spent queued", nil))

	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Ballots the worker failed to apply"))

	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds", "Repository write latency in milliseconds", nil))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds", "Repository read latency in milliseconds", nil))
	m.repositoryTransactions = auto.NewCounterVec(m.counterOpts("repository_transactions_total", "Repository transactions by outcome"), []string{"outcome"})

	m.cacheRequests = auto.NewCounterVec(m.counterOpts("cache_requests_total", "Cache lookups by cache and result"), []string{"cache", "result"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", nil), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Voting.

// RecordVote records an applied vote with the absolute rating deltas and the
// number of parks whose rank moved.
func RecordVote(winnerDelta, loserDelta, rankChanges int) {
	m := get()
	m.votesRecorded.Inc()
	m.ratingDelta.WithLabelValues("winner").Observe(float64(abs(winnerDelta)))
	m.ratingDelta.WithLabelValues("loser").Observe(float64(abs(loserDelta)))
	m.rankChanges.Observe(float64(rankChanges))
}

// RecordVoteRejected counts a vote refused for reason.
func RecordVoteRejected(reason string) {
	get().votesRejected.WithLabelValues(reason).Inc()
}

// RecordVoteDuplicate counts a vote dropped by idempotency.
func RecordVoteDuplicate() {
	get().votesDuplicate.Inc()
}

// RecordVoteApplyLatency records how long the vote protocol took.
func RecordVoteApplyLatency(latencyMs float64) {
	get().voteApplyLatency.Observe(latencyMs)
}

// RecordMatchupServed counts a matchup handed out.
func RecordMatchupServed() {
	get().matchupsServed.Inc()
}

// UpdateTotalParks sets the park gauge.
func UpdateTotalParks(count int) {
	get().totalParks.Set(float64(count))
}

// UpdateTotalVotes sets the ledger gauge.
func UpdateTotalVotes(count int) {
	get().totalVotes.Set(float64(count))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	get().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	get().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	get().queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	m := get()
	m.queueSize.Set(float64(size))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	get().queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	get().queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError(reason string) {
	get().queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordQueueWait records how long a ballot waited in the queue.
func RecordQueueWait(latencyMs float64) {
	get().queueWaitingLatency.Observe(latencyMs)
}

// Worker.

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	get().workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	get().workerErrors.Inc()
}

// Repository.

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	get().repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	get().repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryTransaction counts a transaction as "commit" or "rollback".
func RecordRepositoryTransaction(outcome string) {
	get().repositoryTransactions.WithLabelValues(outcome).Inc()
}

// Cache.

// RecordCacheHit counts a hit on cache.
func RecordCacheHit(cache string) {
	get().cacheRequests.WithLabelValues(cache, "hit").Inc()
}

// RecordCacheMiss counts a miss on cache.
func RecordCacheMiss(cache string) {
	get().cacheRequests.WithLabelValues(cache, "miss").Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	get().errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	get().errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	get().errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	get().errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	get().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	get().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	get().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
