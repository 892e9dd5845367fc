// Package metrics holds the Prometheus collectors for contact activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Saves counts store saves by result: created or replaced.
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rolodex",
		Name:      "contact_saves_total",
		Help:      "Contact saves by result (created, replaced).",
	}, []string{"result"})

	// Deletes counts store deletes by result: deleted or missing.
	Deletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rolodex",
		Name:      "contact_deletes_total",
		Help:      "Contact deletes by result (deleted, missing).",
	}, []string{"result"})

	// PersistenceErrors counts failed reads and writes against the persistence channel.
	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rolodex",
		Name:      "persistence_errors_total",
		Help:      "Persistence channel failures by operation (read, write).",
	}, []string{"op"})

	// Contacts is the current size of the in-memory collection.
	Contacts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rolodex",
		Name:      "contacts",
		Help:      "Number of contacts currently held by the store.",
	})
)
