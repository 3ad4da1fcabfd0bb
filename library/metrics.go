package library

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loanOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_loan_operations_total",
			Help: "Borrow, return and fee operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	loanOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_loan_operation_duration_seconds",
			Help:    "Duration of lifecycle operations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	lateFeesAssessedCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_late_fees_assessed_cents_total",
		Help: "Late fees reported at return time, in cents.",
	})

	bookCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_book_cache_hits_total",
		Help: "Title/author cache hits.",
	})
	bookCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_book_cache_misses_total",
		Help: "Title/author cache misses.",
	})
)

const (
	opBorrow = "borrow"
	opReturn = "return"
	opFee    = "late_fee"
	opStatus = "status"
)

// observe records one finished operation. failure is nil on success.
func observe(op string, start time.Time, failure *Failure, err error) {
	outcome := "success"
	switch {
	case err != nil && errors.Is(err, ErrStoreUnavailable):
		outcome = "store_unavailable"
	case failure != nil:
		outcome = string(failure.Kind)
	}
	loanOperationsTotal.WithLabelValues(op, outcome).Inc()
	loanOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
