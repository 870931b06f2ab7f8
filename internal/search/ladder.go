package search

import (
	"math"

	"github.com/iwvelando/trade-up/pkg/pricing"
)

// Step names the concession being applied by a ladder rung.
type Step string

const (
	StepMaxProfit  Step = "max_profit"
	StepServiceFee Step = "service_fee"
	StepCACBonus   Step = "cac_bonus"
	StepCXA        Step = "cxa"
)

// Level is one rung of the concession cascade.
type Level struct {
	Step       Step
	Concession pricing.Concession
}

const ladderEpsilon = 1e-9

// maxProfitLevel is the only structure tried in the first phase.
func maxProfitLevel(fees pricing.FeeConfiguration) Level {
	return Level{
		Step: StepMaxProfit,
		Concession: pricing.Concession{
			ServiceFeePct: fees.ServiceFee.Max,
			CXAPct:        fees.CXA.Max,
		},
	}
}

// concessionLadder lists the second-phase levels in the order they are tried:
// service fee down to its minimum, then the CAC bonus up to its maximum, then
// the CXA down to its minimum. Rungs identical to an earlier rung, or to the
// first-phase structure, are dropped.
func concessionLadder(fees pricing.FeeConfiguration) []Level {
	var levels []Level
	for _, pct := range descending(fees.ServiceFee) {
		levels = append(levels, Level{Step: StepServiceFee, Concession: pricing.Concession{
			ServiceFeePct: pct,
			CXAPct:        fees.CXA.Max,
		}})
	}
	for _, bonus := range ascending(fees.CACBonus) {
		levels = append(levels, Level{Step: StepCACBonus, Concession: pricing.Concession{
			ServiceFeePct: fees.ServiceFee.Min,
			CXAPct:        fees.CXA.Max,
			CACBonus:      bonus,
		}})
	}
	for _, pct := range descending(fees.CXA) {
		levels = append(levels, Level{Step: StepCXA, Concession: pricing.Concession{
			ServiceFeePct: fees.ServiceFee.Min,
			CXAPct:        pct,
			CACBonus:      fees.CACBonus.Max,
		}})
	}

	seen := map[pricing.Concession]bool{maxProfitLevel(fees).Concession: true}
	ladder := levels[:0]
	for _, level := range levels {
		if seen[level.Concession] {
			continue
		}
		seen[level.Concession] = true
		ladder = append(ladder, level)
	}
	return ladder
}

// descending returns max-step, max-2*step, ... down to and including min.
func descending(r pricing.FeeRange) []float64 {
	if r.Max-r.Min <= ladderEpsilon {
		return []float64{r.Min}
	}
	var values []float64
	for i := 1; ; i++ {
		value := roundRung(r.Max - float64(i)*r.Step)
		if value <= r.Min+ladderEpsilon {
			break
		}
		values = append(values, value)
	}
	return append(values, r.Min)
}

// ascending returns min, min+step, ... up to and including max.
func ascending(r pricing.BonusRange) []float64 {
	if r.Max-r.Min <= ladderEpsilon {
		return []float64{r.Min}
	}
	var values []float64
	for i := 0; ; i++ {
		value := roundRung(r.Min + float64(i)*r.Step)
		if value >= r.Max-ladderEpsilon {
			break
		}
		values = append(values, value)
	}
	return append(values, r.Max)
}

// roundRung strips the float noise that accumulates from repeated steps so
// rungs compare equal when deduplicating.
func roundRung(value float64) float64 {
	return math.Round(value*1e10) / 1e10
}
