package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики dispatch-слоя.
var (
	// EnqueuedTotal — успешно поставленные задачи по очередям и виду
	// работы (task/event).
	EnqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_tasks_enqueued_total",
		Help: "Tasks durably enqueued, by queue and work kind.",
	}, []string{"queue", "kind"})

	// DuplicatesTotal — отклонённые дубликаты именованных задач
	// (сработавший fan-in).
	DuplicatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_enqueue_duplicates_total",
		Help: "Named-task enqueues rejected as duplicates.",
	}, []string{"queue"})

	// EnqueueErrorsTotal — ошибки постановки по классам
	// (transient/fatal).
	EnqueueErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_enqueue_errors_total",
		Help: "Enqueue failures, by error class.",
	}, []string{"queue", "class"})

	// DeliveriesTotal — исходы доставки на execute endpoint.
	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_deliveries_total",
		Help: "Delivery attempts to the execute endpoint, by outcome.",
	}, []string{"outcome"})

	// DeliveryDuration — длительность доставки.
	DeliveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_delivery_duration_seconds",
		Help:    "Duration of delivery HTTP calls.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		EnqueuedTotal,
		DuplicatesTotal,
		EnqueueErrorsTotal,
		DeliveriesTotal,
		DeliveryDuration,
	)
}
