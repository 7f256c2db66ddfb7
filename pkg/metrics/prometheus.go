package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Метрики команд
	CommandsTotal     *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	CommandsInFlight  prometheus.Gauge
	CooldownHitsTotal *prometheus.CounterVec

	// Бизнес-метрики
	AssignmentRunsTotal      *prometheus.CounterVec
	AssignmentDuration       *prometheus.HistogramVec
	AssignmentMaxFlow        prometheus.Gauge
	NetworkVerticesTotal     *prometheus.HistogramVec
	NetworkEdgesTotal        *prometheus.HistogramVec
	ExchangesActive          prometheus.Gauge
	ExchangeTransitionsTotal *prometheus.CounterVec
	SubmissionsTotal         *prometheus.CounterVec
	MessagesSentTotal        *prometheus.CounterVec
	SchedulerTicksTotal      *prometheus.CounterVec
	SchedulerMissedTotal     prometheus.Counter

	// Системные метрики
	Goroutines prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// Метрики команд
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_total",
				Help:      "Total number of handled Discord commands",
			},
			[]string{"command", "status"},
		),

		CommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_duration_seconds",
				Help:      "Duration of command handling",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"command"},
		),

		CommandsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_in_flight",
				Help:      "Current number of commands being processed",
			},
		),

		CooldownHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cooldown_hits_total",
				Help:      "Commands rejected because the caller was on cooldown",
			},
			[]string{"command"},
		),

		// Бизнес-метрики
		AssignmentRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_runs_total",
				Help:      "Total number of assignment runs",
			},
			[]string{"status"},
		),

		AssignmentDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_duration_seconds",
				Help:      "Duration of assignment runs",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),

		AssignmentMaxFlow: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_max_flow",
				Help:      "Max flow value of the last assignment run",
			},
		),

		NetworkVerticesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_vertices_total",
				Help:      "Number of vertices in solved flow networks",
				Buckets:   []float64{4, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"operation"},
		),

		NetworkEdgesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_edges_total",
				Help:      "Number of edges in solved flow networks",
				Buckets:   []float64{4, 20, 100, 500, 1000, 10000, 100000},
			},
			[]string{"operation"},
		),

		ExchangesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exchanges_active",
				Help:      "Exchanges currently accepting submissions",
			},
		),

		ExchangeTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exchange_transitions_total",
				Help:      "Exchange state transitions",
			},
			[]string{"from", "to"},
		),

		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Submission operations by kind",
			},
			[]string{"action"},
		),

		MessagesSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_sent_total",
				Help:      "Messages sent to Discord",
			},
			[]string{"kind", "status"},
		),

		SchedulerTicksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "scheduler_ticks_total",
				Help:      "Scheduler wakeups by reason",
			},
			[]string{"reason"},
		),

		SchedulerMissedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "scheduler_missed_total",
				Help:      "Exchanges marked as missed by the bot",
			},
		),

		// Системные метрики
		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("ratex", "")
	}
	return defaultMetrics
}

// RecordCommand записывает метрики обработанной команды
func (m *Metrics) RecordCommand(command string, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordCooldownHit записывает отклонённую по cooldown команду
func (m *Metrics) RecordCooldownHit(command string) {
	m.CooldownHitsTotal.WithLabelValues(command).Inc()
}

// RecordAssignmentRun записывает метрики прогона назначений
func (m *Metrics) RecordAssignmentRun(success bool, duration time.Duration, maxFlow int64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.AssignmentRunsTotal.WithLabelValues(status).Inc()
	m.AssignmentDuration.WithLabelValues("total").Observe(duration.Seconds())
	m.AssignmentMaxFlow.Set(float64(maxFlow))
}

// RecordNetworkSize записывает размер сети потока
func (m *Metrics) RecordNetworkSize(operation string, vertices, edges int) {
	m.NetworkVerticesTotal.WithLabelValues(operation).Observe(float64(vertices))
	m.NetworkEdgesTotal.WithLabelValues(operation).Observe(float64(edges))
}

// RecordTransition записывает переход состояния exchange
func (m *Metrics) RecordTransition(from, to string) {
	m.ExchangeTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordSubmission записывает операцию над submission
// (submit, update, revoke, played)
func (m *Metrics) RecordSubmission(action string) {
	m.SubmissionsTotal.WithLabelValues(action).Inc()
}

// RecordMessage записывает отправку сообщения в Discord
func (m *Metrics) RecordMessage(kind, status string) {
	m.MessagesSentTotal.WithLabelValues(kind, status).Inc()
}

// RecordSchedulerTick записывает пробуждение планировщика
func (m *Metrics) RecordSchedulerTick(reason string) {
	m.SchedulerTicksTotal.WithLabelValues(reason).Inc()
}

// SetActiveExchanges устанавливает число активных exchange
func (m *Metrics) SetActiveExchanges(n int) {
	m.ExchangesActive.Set(float64(n))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
