// Package metrics exposes prometheus counters for ledger activity.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts ledger postings and failed operations. It backs the ledger
// service's metrics seam and serves its own registry, so tests can create
// collectors freely without colliding on the global one.
type Collector struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	amounts      *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiftpay",
		Name:      "ledger_transactions_total",
		Help:      "Committed ledger postings by transaction type.",
	}, []string{"type"})

	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiftpay",
		Name:      "ledger_transaction_amount_total",
		Help:      "Summed posted amounts in major units by transaction type.",
	}, []string{"type"})

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiftpay",
		Name:      "ledger_errors_total",
		Help:      "Failed ledger operations by operation and error code.",
	}, []string{"operation", "code"})

	registry.MustRegister(transactions, amounts, errs)
	return &Collector{
		registry:     registry,
		transactions: transactions,
		amounts:      amounts,
		errors:       errs,
	}
}

// RecordTransaction counts a committed posting.
func (c *Collector) RecordTransaction(txType string, amount string) {
	c.transactions.WithLabelValues(txType).Inc()
	if v, err := strconv.ParseFloat(amount, 64); err == nil {
		c.amounts.WithLabelValues(txType).Add(v)
	}
}

// RecordError counts a failed operation.
func (c *Collector) RecordError(operation, errType string) {
	if errType == "" {
		errType = "internal"
	}
	c.errors.WithLabelValues(operation, errType).Inc()
}

// Handler serves the collector's registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
