package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bankbook/internal/domain"
)

// Metrics holds the business and storage Prometheus metrics.
// It implements usecase.MetricsRecorder and jsonfile.WriteObserver.
type Metrics struct {
	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsRemoved prometheus.Counter

	// Transaction metrics
	Transactions  *prometheus.CounterVec
	OverdraftFees prometheus.Counter

	// Store metrics
	StoreWrites        *prometheus.CounterVec
	StoreWriteDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankbook_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankbook_accounts_removed_total",
			Help: "Total number of accounts removed",
		}),

		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankbook_transactions_total",
				Help: "Transaction attempts by kind and admission result",
			},
			[]string{"kind", "result"},
		),
		OverdraftFees: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankbook_overdraft_fees_total",
			Help: "Total number of overdraft fees charged",
		}),

		StoreWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankbook_store_writes_total",
				Help: "Rewrites of the account store file by status",
			},
			[]string{"status"},
		),
		StoreWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankbook_store_write_duration_seconds",
			Help:    "Duration of account store rewrites",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}

// AccountCreated counts a new account.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// AccountRemoved counts a removed account.
func (m *Metrics) AccountRemoved() {
	m.AccountsRemoved.Inc()
}

// TransactionAdmitted counts an admission attempt.
func (m *Metrics) TransactionAdmitted(kind domain.TransactionKind, result domain.AdmissionResult) {
	m.Transactions.WithLabelValues(kind.String(), result.String()).Inc()
	if result == domain.OverdraftFeeCharged {
		m.OverdraftFees.Inc()
	}
}

// ObserveStoreWrite records one rewrite of the store file.
func (m *Metrics) ObserveStoreWrite(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreWrites.WithLabelValues(status).Inc()
	m.StoreWriteDuration.Observe(duration.Seconds())
}
