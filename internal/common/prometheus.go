package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"

	EventProcessedTotal       = "lottery_events_processed_total"
	EventProcessDuration      = "lottery_event_process_duration_seconds"
	EventRecoveredTotal       = "lottery_events_recovered_total"
	SessionCreatedTotal       = "lottery_sessions_created_total"
	BetSettledTotal           = "lottery_bets_settled_total"
	PayoutAmountTotal         = "lottery_payout_amount_total"
	DataIntegrityAnomalyTotal = "lottery_data_integrity_anomalies_total"
	LedgerInvariantViolation  = "lottery_ledger_invariant_violations_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		EventProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventProcessedTotal,
			Help: "Count of processed scheduled events",
		}, []string{"event_type", "status"}),
		EventRecoveredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventRecoveredTotal,
			Help: "Count of events recovered by the watchdog",
		}, []string{"reason"}),
		SessionCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SessionCreatedTotal,
			Help: "Count of created sessions",
		}, []string{"game_type"}),
		BetSettledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BetSettledTotal,
			Help: "Count of settled bets",
		}, []string{"bet_type", "status"}),
		PayoutAmountTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: PayoutAmountTotal,
			Help: "Sum of credited payouts",
		}, []string{"game_type"}),
		DataIntegrityAnomalyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: DataIntegrityAnomalyTotal,
			Help: "Count of bets resolved as lost because of inconsistent data",
		}, []string{"reason"}),
		LedgerInvariantViolation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: LedgerInvariantViolation,
			Help: "Count of refused ledger operations because the balance chain is broken",
		}, []string{"operation"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
		EventProcessDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: EventProcessDuration,
			Help: "Duration of scheduled event handlers",
		}, []string{"event_type"}),
	}
)
