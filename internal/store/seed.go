package store

import (
	"time"

	"github.com/shopspring/decimal"

	"pensim/internal/simulation"
)

// SeedDemo loads the memory store with demonstration data so the service
// answers requests when running on the memory driver. Two participants: one
// mid-career with a full history, one recently enrolled with none.
func SeedDemo(s *MemoryStore, rules simulation.PlanRules) {
	birth := time.Date(1981, time.March, 12, 0, 0, 0, 0, time.UTC)
	enrolled := time.Date(2006, time.July, 1, 0, 0, 0, 0, time.UTC)

	s.PutParticipant(simulation.Participant{
		ID:             "P-1001",
		FullName:       "Amina Rashid",
		BirthDate:      birth,
		EnrollmentDate: enrolled,
		Affiliation:    "general",
		BaseAmount:     decimal.NewFromInt(2_500_000),
	})

	entries := make([]simulation.ContributionEntry, 0, 18*12)
	period := enrolled
	for period.Before(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		entries = append(entries, simulation.ContributionEntry{
			Period:         period,
			EmployeeAmount: decimal.NewFromInt(87_500),
			EmployerAmount: decimal.NewFromInt(120_000),
			BaseAmount:     decimal.NewFromInt(2_500_000),
		})
		period = period.AddDate(0, 1, 0)
	}
	s.PutHistory(simulation.ContributionHistory{
		ParticipantID: "P-1001",
		Entries:       entries,
	})

	s.PutParticipant(simulation.Participant{
		ID:             "P-1002",
		FullName:       "Karim Saleh",
		BirthDate:      time.Date(1996, time.November, 3, 0, 0, 0, 0, time.UTC),
		EnrollmentDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		Affiliation:    "general",
		BaseAmount:     decimal.NewFromInt(1_800_000),
	})

	series := make([]simulation.RatePoint, 0, 12)
	rates := []float64{0.062, 0.058, 0.071, 0.066, 0.079, 0.083, 0.088, 0.091, 0.085, 0.082, 0.087, 0.090}
	start := time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range rates {
		series = append(series, simulation.RatePoint{
			Period: start.AddDate(i, 0, 0),
			Rate:   decimal.NewFromFloat(r),
		})
	}
	s.PutRateSeries(series)

	s.PutRules(rules)
}
