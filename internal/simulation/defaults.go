package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "pensim/internal/errors"
)

// MethodSimpleCompound tags results produced by the single-period
// compounding projection.
const MethodSimpleCompound = "simple-compound"

// Fallback values used when an auxiliary source reports absence. Absence is
// a valid outcome and must never reach the calculator unhandled; a hard
// source failure is never defaulted.

// fallbackRate is the fixed rate applied when no rate series is available
// and no rate was configured.
var fallbackRate = decimal.NewFromFloat(0.05)

// EmptyHistory returns the zero-contribution history for a participant.
func EmptyHistory(participantID string) ContributionHistory {
	return ContributionHistory{ParticipantID: participantID}
}

// FixedRateSnapshot returns a snapshot where all three rates collapse to
// the given fixed rate.
func FixedRateSnapshot(rate decimal.Decimal) RateSnapshot {
	return RateSnapshot{
		CurrentRate: rate,
		AvgRate5:    rate,
		AvgRate10:   rate,
	}
}

// FallbackRateSnapshot returns the snapshot used when the rate series is
// missing, at the built-in fallback rate.
func FallbackRateSnapshot() RateSnapshot {
	return FixedRateSnapshot(fallbackRate)
}

// DefaultRules returns the plan rules applied when no rules record is
// configured. Safe for concurrent use; callers receive a copy.
func DefaultRules() PlanRules {
	return PlanRules{
		NormalRetirementAge: 65,
		EarlyRetirementAge:  55,
		MinimumTenureYears:  15,
		PenaltyRatePerYear:  decimal.NewFromFloat(0.05),
		BenefitDivisor:      decimal.NewFromInt(180),
	}
}

// RulesFromValues builds a rules record from plain config values.
func RulesFromValues(normalAge, earlyAge, minTenure int, penaltyRate float64, benefitDivisor int) PlanRules {
	return PlanRules{
		NormalRetirementAge: normalAge,
		EarlyRetirementAge:  earlyAge,
		MinimumTenureYears:  minTenure,
		PenaltyRatePerYear:  decimal.NewFromFloat(penaltyRate),
		BenefitDivisor:      decimal.NewFromInt(int64(benefitDivisor)),
	}
}

// Validate reports a configuration invariant violation. A zero benefit
// divisor would make the monthly benefit undefined, so it is fatal and
// checked at startup rather than per request.
func (r PlanRules) Validate() error {
	if !r.BenefitDivisor.IsPositive() {
		return apperrors.NewConfigError(
			fmt.Sprintf("benefit divisor must be positive, got %s", r.BenefitDivisor), nil)
	}
	if r.NormalRetirementAge <= 0 || r.EarlyRetirementAge <= 0 {
		return apperrors.NewConfigError("retirement ages must be positive", nil)
	}
	if r.EarlyRetirementAge > r.NormalRetirementAge {
		return apperrors.NewConfigError("early retirement age exceeds normal retirement age", nil)
	}
	if r.MinimumTenureYears < 0 {
		return apperrors.NewConfigError("minimum tenure must not be negative", nil)
	}
	if r.PenaltyRatePerYear.IsNegative() {
		return apperrors.NewConfigError("penalty rate must not be negative", nil)
	}
	return nil
}
