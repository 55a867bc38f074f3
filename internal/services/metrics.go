package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_events_processed_total",
			Help: "Total number of bus events handled successfully",
		},
		[]string{"service", "event"},
	)

	eventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_events_failed_total",
			Help: "Total number of bus events whose handler returned an error",
		},
		[]string{"service", "event"},
	)

	eventsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_events_duplicate_total",
			Help: "Total number of redelivered events skipped by the idempotency marker",
		},
		[]string{"service", "event"},
	)
)
