// Package search finds viable trade-up loan structures for customer and
// vehicle pairs and groups the resulting offers by payment tier.
package search

import (
	"fmt"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Engine searches loan structures against one fee configuration. It holds no
// mutable state once constructed and may be shared between goroutines.
type Engine struct {
	logger    *zap.Logger
	fees      pricing.FeeConfiguration
	maxProfit Level
	ladder    []Level
}

// Accepted is a structure that passed every check, with the level it was found at.
type Accepted struct {
	Level   Level
	Attempt pricing.Attempt
}

// Outcome is the result of searching one vehicle. An empty Accepted slice
// with a Rejection is the normal "no viable offer" result.
type Outcome struct {
	Vehicle   pricing.VehicleCandidate
	Phase     pricing.Phase
	Accepted  []Accepted
	Rejection pricing.Rejection
	Attempts  int
}

// Viable reports whether at least one structure was accepted.
func (o Outcome) Viable() bool {
	return len(o.Accepted) > 0
}

type state int

const (
	stateHardFilters state = iota
	stateMaxProfit
	stateConcession
	stateDone
)

// NewEngine validates the fee configuration and prepares the concession
// ladder. This is the only setup work; searches reuse it.
func NewEngine(logger *zap.Logger, fees pricing.FeeConfiguration) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := fees.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		logger:    logger,
		fees:      fees,
		maxProfit: maxProfitLevel(fees),
		ladder:    concessionLadder(fees),
	}, nil
}

// Fees returns the engine's fee configuration.
func (e *Engine) Fees() pricing.FeeConfiguration {
	return e.fees
}

// Ladder returns a copy of the concession levels tried in the second phase.
func (e *Engine) Ladder() []Level {
	return append([]Level(nil), e.ladder...)
}

// Search runs the hard filters and the two search phases for one vehicle.
// Inputs must already be validated; see GenerateOffers.
func (e *Engine) Search(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate) Outcome {
	outcome := Outcome{Vehicle: vehicle}

	for current := stateHardFilters; current != stateDone; {
		switch current {
		case stateHardFilters:
			current = e.hardFilters(customer, vehicle, &outcome)
		case stateMaxProfit:
			current = e.searchMaxProfit(customer, vehicle, &outcome)
		case stateConcession:
			current = e.searchConcessions(customer, vehicle, &outcome)
		}
	}

	if !outcome.Viable() {
		e.logger.Debug(fmt.Sprintf("no viable offer for vehicle %s", vehicle.ID),
			zap.String("op", "search.Search"),
			zap.String("customer", customer.ID),
			zap.String("reason", string(outcome.Rejection)),
			zap.Int("attempts", outcome.Attempts),
		)
	}
	return outcome
}

func (e *Engine) hardFilters(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate, outcome *Outcome) state {
	if vehicle.Price <= customer.CurrentVehiclePrice {
		outcome.Rejection = pricing.RejectPriceNotHigher
		return stateDone
	}

	for _, term := range e.fees.Terms {
		required, ok := e.fees.RequiredDownPaymentPct(customer.RiskProfile, term)
		if ok && customer.VehicleEquity >= vehicle.Price*required {
			return stateMaxProfit
		}
	}
	outcome.Rejection = pricing.RejectEquityEveryTerm
	return stateDone
}

// searchMaxProfit tries the full-fee structure on each term in order and
// stops at the first one accepted.
func (e *Engine) searchMaxProfit(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate, outcome *Outcome) state {
	for _, term := range e.fees.Terms {
		attempt := e.try(customer, vehicle, term, e.maxProfit, outcome)
		if attempt.Viable() {
			outcome.Phase = pricing.PhaseMaxProfit
			outcome.Accepted = append(outcome.Accepted, Accepted{Level: e.maxProfit, Attempt: attempt})
			outcome.Rejection = pricing.Accepted
			return stateDone
		}
	}
	return stateConcession
}

// searchConcessions walks the ladder independently for every term and keeps
// the first accepted level of each.
func (e *Engine) searchConcessions(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate, outcome *Outcome) state {
	for _, term := range e.fees.Terms {
		for _, level := range e.ladder {
			attempt := e.try(customer, vehicle, term, level, outcome)
			if attempt.Viable() {
				outcome.Accepted = append(outcome.Accepted, Accepted{Level: level, Attempt: attempt})
				break
			}
		}
	}

	if outcome.Viable() {
		outcome.Phase = pricing.PhaseConcession
		outcome.Rejection = pricing.Accepted
	} else {
		outcome.Rejection = pricing.RejectNoViableStructure
	}
	return stateDone
}

func (e *Engine) try(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate, term int, level Level, outcome *Outcome) pricing.Attempt {
	attempt := pricing.Evaluate(customer, vehicle, e.fees, term, level.Concession)
	outcome.Attempts++

	if ce := e.logger.Check(zapcore.DebugLevel, "evaluated loan structure"); ce != nil {
		ce.Write(
			zap.String("op", "search.try"),
			zap.String("customer", customer.ID),
			zap.String("vehicle", vehicle.ID),
			zap.Int("term", term),
			zap.String("step", string(level.Step)),
			zap.Float64("serviceFeePct", level.Concession.ServiceFeePct),
			zap.Float64("cxaPct", level.Concession.CXAPct),
			zap.Float64("cacBonus", level.Concession.CACBonus),
			zap.Float64("npv", attempt.NPV),
			zap.String("rejection", string(attempt.Rejection)),
		)
	}
	return attempt
}
