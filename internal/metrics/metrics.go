// Package metrics exposes step and end-state counters for joined workers.
// Collectors live on a private registry so several runs in one process
// (tests, the simulate command) never collide.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "datajoin"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	elements *prometheus.CounterVec
	idle     *prometheus.CounterVec
	steps    *prometheus.CounterVec
	endState *prometheus.GaugeVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,

		// elements counts elements pulled from a worker's joined pipeline.
		elements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_total",
			Help:      "Total number of elements consumed per worker",
		}, []string{"worker"}),

		// idle counts steps a worker joined without data.
		idle: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_steps_total",
			Help:      "Total number of collective steps joined without data",
		}, []string{"worker"}),

		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of collective steps per worker",
		}, []string{"worker"}),

		endState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "end_state",
			Help:      "1 once the worker's pipeline released its last element",
		}, []string{"worker"}),
	}
}

func label(worker int) string {
	return strconv.Itoa(worker)
}

func (r *Recorder) Element(worker int) {
	if r == nil {
		return
	}
	r.elements.WithLabelValues(label(worker)).Inc()
}

func (r *Recorder) Idle(worker int) {
	if r == nil {
		return
	}
	r.idle.WithLabelValues(label(worker)).Inc()
}

func (r *Recorder) Step(worker int) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(label(worker)).Inc()
}

func (r *Recorder) EndState(worker int, ended bool) {
	if r == nil {
		return
	}

	v := 0.0
	if ended {
		v = 1
	}
	r.endState.WithLabelValues(label(worker)).Set(v)
}

// Registry returns the gatherer holding every collector.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps the registry in the text exposition format, in the
// layout the node exporter textfile collector reads.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
