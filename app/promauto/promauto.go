// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package promauto is a drop-in replacement of github.com/prometheus/client_golang/prometheus/promauto
// that caches all created metrics so they can be collected by a single registry.
package promauto

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// Using globals since promauto is designed for use at package initialisation time.
var (
	mu      sync.Mutex
	metrics []prometheus.Collector
)

// NewRegistry returns a new registry containing all promauto created metrics and
// built-in Go process metrics wrapping all the metrics with the provided labels.
func NewRegistry(labels prometheus.Labels) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	registerer := prometheus.WrapRegistererWith(labels, registry)
	if err := registerer.Register(collectors.NewGoCollector()); err != nil {
		return nil, errors.Wrap(err, "register go collector")
	}

	mu.Lock()
	defer mu.Unlock()

	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return nil, errors.Wrap(err, "register metric")
		}
	}

	return registry, nil
}

// WriteTextfile writes all promauto metrics to the file in the prometheus text format.
// The file is written atomically, suitable for the node-exporter textfile collector.
func WriteTextfile(path string, labels prometheus.Labels) error {
	registry, err := NewRegistry(labels)
	if err != nil {
		return err
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return errors.Wrap(err, "write metrics textfile", z.Str("path", path))
	}

	return nil
}

// cacheMetric adds the metric to the local global cache.
func cacheMetric(metric prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()

	metrics = append(metrics, metric)
}

func NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := promauto.With(nil).NewCounter(opts)
	cacheMetric(c)

	return c
}

func NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	c := promauto.With(nil).NewCounterVec(opts, labelNames)
	cacheMetric(c)

	return c
}

func NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	c := promauto.With(nil).NewHistogramVec(opts, labelNames)
	cacheMetric(c)

	return c
}
