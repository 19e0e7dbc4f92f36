package simulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calculate runs the deterministic pension projection. It performs no I/O
// and never fails: every input has been existence-checked or defaulted by
// the orchestrator before it gets here.
//
// The projection is deliberately simple: total contributions are compounded
// once with the trailing 10-period average rate, an early-retirement
// penalty is taken off the projected value, and the remainder is spread
// over the benefit divisor.
func Calculate(p Participant, history ContributionHistory, rate RateSnapshot, rules PlanRules, now time.Time) SimulationResult {
	age := p.AgeAt(now)
	tenure := p.TenureAt(now)

	total := history.TotalContributions()
	projected := total.Mul(decimal.NewFromInt(1).Add(rate.AvgRate10))

	eligible := age >= rules.EarlyRetirementAge && tenure >= rules.MinimumTenureYears

	penaltyFraction := decimal.Zero
	if age < rules.NormalRetirementAge {
		yearsEarly := decimal.NewFromInt(int64(rules.NormalRetirementAge - age))
		penaltyFraction = yearsEarly.Mul(rules.PenaltyRatePerYear)
	}

	penaltyAmount := projected.Mul(penaltyFraction)
	lumpSum := projected.Sub(penaltyAmount)
	monthly := lumpSum.Div(rules.BenefitDivisor)

	return SimulationResult{
		ParticipantID:      p.ID,
		FullName:           p.FullName,
		Affiliation:        p.Affiliation,
		Age:                age,
		TenureYears:        tenure,
		TotalContributions: total,
		ProjectedValue:     projected,
		LumpSum:            lumpSum,
		MonthlyBenefit:     monthly,
		Eligible:           eligible,
		PenaltyFraction:    penaltyFraction,
		PenaltyAmount:      penaltyAmount,
		ComputedAt:         now,
		Details: ResultDetails{
			AppliedRate: rate.AvgRate10,
			PeriodCount: len(history.Entries),
			Method:      MethodSimpleCompound,
		},
	}
}
