package simulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Participant is a member's descriptive record. It is immutable once
// fetched; age and tenure are derived from a reference time on demand and
// never stored.
type Participant struct {
	ID             string          `json:"id"`
	FullName       string          `json:"full_name"`
	BirthDate      time.Time       `json:"birth_date"`
	EnrollmentDate time.Time       `json:"enrollment_date"`
	Affiliation    string          `json:"affiliation"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
}

// AgeAt returns the participant's age in whole years at the reference time.
// The year is not counted until the birthday has passed.
func (p Participant) AgeAt(ref time.Time) int {
	return wholeYears(p.BirthDate, ref)
}

// TenureAt returns whole years since enrollment, same truncation rule as AgeAt.
func (p Participant) TenureAt(ref time.Time) int {
	return wholeYears(p.EnrollmentDate, ref)
}

// ContributionEntry is one periodic contribution record.
type ContributionEntry struct {
	Period         time.Time       `json:"period"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
}

// ContributionHistory is the ordered contribution record for one
// participant. The backing store is append-only; this core treats it as
// read-only.
type ContributionHistory struct {
	ParticipantID string              `json:"participant_id"`
	Entries       []ContributionEntry `json:"entries"`
}

// TotalContributions sums employee and employer amounts over all entries.
func (h ContributionHistory) TotalContributions() decimal.Decimal {
	total := decimal.Zero
	for _, e := range h.Entries {
		total = total.Add(e.EmployeeAmount).Add(e.EmployerAmount)
	}
	return total
}

// RatePoint is one period's rate observation.
type RatePoint struct {
	Period time.Time       `json:"period"`
	Rate   decimal.Decimal `json:"rate"`
}

// RateSnapshot is a point-in-time view of the applicable rates. It is
// recomputed per request from the rate series and never cached by the core.
type RateSnapshot struct {
	CurrentRate decimal.Decimal `json:"current_rate"`
	AvgRate5    decimal.Decimal `json:"avg_rate_5"`
	AvgRate10   decimal.Decimal `json:"avg_rate_10"`
	Series      []RatePoint     `json:"series,omitempty"`
}

// PlanRules is the plan's fixed configuration record.
type PlanRules struct {
	NormalRetirementAge int             `json:"normal_retirement_age"`
	EarlyRetirementAge  int             `json:"early_retirement_age"`
	MinimumTenureYears  int             `json:"minimum_tenure_years"`
	PenaltyRatePerYear  decimal.Decimal `json:"penalty_rate_per_year"`
	BenefitDivisor      decimal.Decimal `json:"benefit_divisor"`
}

// ResultDetails carries the calculation inputs worth echoing back.
type ResultDetails struct {
	AppliedRate decimal.Decimal `json:"applied_rate"`
	PeriodCount int             `json:"period_count"`
	Method      string          `json:"method"`
}

// SimulationResult is the projection outcome for one participant. It is
// constructed once per successful run, after participant existence is
// confirmed, and never mutated afterwards. It is not persisted by this
// core.
type SimulationResult struct {
	ParticipantID      string          `json:"participant_id"`
	FullName           string          `json:"full_name"`
	Affiliation        string          `json:"affiliation"`
	Age                int             `json:"age"`
	TenureYears        int             `json:"tenure_years"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	ProjectedValue     decimal.Decimal `json:"projected_value"`
	LumpSum            decimal.Decimal `json:"lump_sum"`
	MonthlyBenefit     decimal.Decimal `json:"monthly_benefit"`
	Eligible           bool            `json:"eligible"`
	PenaltyFraction    decimal.Decimal `json:"penalty_fraction"`
	PenaltyAmount      decimal.Decimal `json:"penalty_amount"`
	ComputedAt         time.Time       `json:"computed_at"`
	Elapsed            time.Duration   `json:"elapsed_ns"`
	Details            ResultDetails   `json:"details"`
}

// wholeYears counts complete years between from and to. The year in
// progress is not counted until the month/day anniversary has been reached.
func wholeYears(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
