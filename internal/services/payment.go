package services

import "math/rand"

// ChargeOutcome is the result of a settlement attempt.
type ChargeOutcome int

const (
	ChargeDeclined ChargeOutcome = iota
	ChargeApproved
)

// PaymentProvider is the gateway capability consumed by the transaction
// handler. A real integration replaces the simulated one without touching
// transaction logic.
type PaymentProvider interface {
	AttemptCharge(amount float64) ChargeOutcome
}

// Gateway is the provider used by the transaction handler. Swappable in
// tests to force an outcome.
var Gateway PaymentProvider = SimulatedGateway{SuccessRate: 0.95}

// SimulatedGateway approves charges with a fixed probability. It stands in
// for an external payment gateway; no money moves.
type SimulatedGateway struct {
	SuccessRate float64
}

func (g SimulatedGateway) AttemptCharge(amount float64) ChargeOutcome {
	if rand.Float64() < g.SuccessRate {
		return ChargeApproved
	}
	return ChargeDeclined
}
