package observability

// Metric names
const (
	WagersSettledTotal          = "croupier.wagers.settled.total"
	WagersRejectedTotal         = "croupier.wagers.rejected.total"
	PaymentsVerifiedTotal       = "croupier.payments.verified.total"
	ReplayRejectionsTotal       = "croupier.payments.replay_rejections.total"
	SettlementFailuresTotal     = "croupier.settlements.failures.total"
	PaymentVerificationDuration = "croupier.payments.verification.duration"
)

// Label keys
const (
	LabelGame   = "game"
	LabelResult = "result"
	LabelReason = "reason"
)
