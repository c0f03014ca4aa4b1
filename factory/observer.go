package factory

import (
	"errors"
	"reflect"
	"time"

	"github.com/invakid404/fluid/catalog"
	"github.com/prometheus/client_golang/prometheus"
)

// ConstructEvent describes one attempt to build a target object.
type ConstructEvent struct {
	Owner    reflect.Type
	Kind     Kind
	Duration time.Duration
	Error    error
}

// Observer is notified after every construction attempt.
type Observer interface {
	OnConstruct(event *ConstructEvent)
}

type NoOpObserver struct{}

func (NoOpObserver) OnConstruct(*ConstructEvent) {}

// PrometheusObserver records construction counts and latencies.
//
//	observer := factory.NewPrometheusObserver("myapp", prometheus.DefaultRegisterer)
//	// myapp_fluid_constructions_total{type="*pipe.Each",kind="pipe",status="success"}
type PrometheusObserver struct {
	constructions *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func NewPrometheusObserver(namespace string, registerer prometheus.Registerer) *PrometheusObserver {
	if namespace == "" {
		namespace = "fluid"
	}

	constructions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fluid",
			Name:      "constructions_total",
			Help:      "Total number of target constructions by outcome",
		},
		[]string{"type", "kind", "status"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fluid",
			Name:      "construction_duration_seconds",
			Help:      "Duration of target constructor calls in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"type", "kind"},
	)

	registerer.MustRegister(constructions, duration)

	return &PrometheusObserver{
		constructions: constructions,
		duration:      duration,
	}
}

func (o *PrometheusObserver) OnConstruct(event *ConstructEvent) {
	typeName := "unbound"
	if event.Owner != nil {
		typeName = catalog.SimpleName(event.Owner)
	}

	o.constructions.WithLabelValues(typeName, event.Kind.String(), status(event.Error)).Inc()
	if event.Error == nil {
		o.duration.WithLabelValues(typeName, event.Kind.String()).Observe(event.Duration.Seconds())
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, catalog.ErrAmbiguousConstructor):
		return "ambiguous"
	case errors.Is(err, catalog.ErrNoConstructor):
		return "unresolved"
	case errors.Is(err, ErrUnboundTarget):
		return "unbound"
	}

	return "error"
}
