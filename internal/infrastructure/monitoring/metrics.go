package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	QuotesTotal         *prometheus.CounterVec
	ApplicationsTotal   *prometheus.CounterVec
	PaymentsTotal       *prometheus.CounterVec
	WalletTransactions  *prometheus.CounterVec
	CatalogLookupsTotal *prometheus.CounterVec
	CatalogRefreshTotal *prometheus.CounterVec
	CatalogSize         prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lora_lending_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lora_lending_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		QuotesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_quotes_total",
				Help: "Loan quotes by interest type and outcome.",
			},
			[]string{"interest_type", "outcome"},
		),
		ApplicationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_applications_total",
				Help: "Loan applications by resulting status.",
			},
			[]string{"status"},
		),
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_payments_total",
				Help: "Loan payments by method and status.",
			},
			[]string{"method", "status"},
		),
		WalletTransactions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_wallet_transactions_total",
				Help: "Wallet transactions by type and status.",
			},
			[]string{"type", "status"},
		),
		CatalogLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_catalog_lookups_total",
				Help: "Lender catalog lookups by cache result.",
			},
			[]string{"result"},
		),
		CatalogRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lora_lending_catalog_refresh_total",
				Help: "Lender catalog refresh runs by status.",
			},
			[]string{"status"},
		),
		CatalogSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lora_lending_catalog_lenders",
				Help: "Number of lenders loaded by the last catalog refresh.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordQuote(interestType, outcome string) {
	Business.QuotesTotal.WithLabelValues(interestType, outcome).Inc()
}

func RecordApplication(status string) {
	Business.ApplicationsTotal.WithLabelValues(status).Inc()
}

func RecordPayment(method, status string) {
	Business.PaymentsTotal.WithLabelValues(method, status).Inc()
}

func RecordWalletTransaction(txType, status string) {
	Business.WalletTransactions.WithLabelValues(txType, status).Inc()
}

func RecordCatalogLookup(result string) {
	Business.CatalogLookupsTotal.WithLabelValues(result).Inc()
}

func RecordCatalogRefresh(status string, lenders int) {
	Business.CatalogRefreshTotal.WithLabelValues(status).Inc()
	if status == "success" {
		Business.CatalogSize.Set(float64(lenders))
	}
}
