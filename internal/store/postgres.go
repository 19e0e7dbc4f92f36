package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pensim/internal/config"
	apperrors "pensim/internal/errors"
	"pensim/internal/simulation"
)

// PostgresStore implements the simulation data source contracts on top of
// a postgres database via gorm. All reads; the core never writes.
type PostgresStore struct {
	db     *gorm.DB
	logger *slog.Logger

	fallbackRules simulation.PlanRules
}

// participantRow is the gorm model backing participants.
type participantRow struct {
	ID             string          `gorm:"primaryKey;column:id"`
	FullName       string          `gorm:"column:full_name"`
	BirthDate      time.Time       `gorm:"column:birth_date"`
	EnrollmentDate time.Time       `gorm:"column:enrollment_date"`
	Affiliation    string          `gorm:"column:affiliation"`
	BaseAmount     decimal.Decimal `gorm:"column:base_amount;type:numeric"`
}

func (participantRow) TableName() string { return "participants" }

type contributionRow struct {
	ID             uint            `gorm:"primaryKey;column:id"`
	ParticipantID  string          `gorm:"column:participant_id;index"`
	Period         time.Time       `gorm:"column:period"`
	EmployeeAmount decimal.Decimal `gorm:"column:employee_amount;type:numeric"`
	EmployerAmount decimal.Decimal `gorm:"column:employer_amount;type:numeric"`
	BaseAmount     decimal.Decimal `gorm:"column:base_amount;type:numeric"`
}

func (contributionRow) TableName() string { return "contributions" }

type rateRow struct {
	ID     uint            `gorm:"primaryKey;column:id"`
	Period time.Time       `gorm:"column:period;index"`
	Rate   decimal.Decimal `gorm:"column:rate;type:numeric"`
}

func (rateRow) TableName() string { return "rates" }

type rulesRow struct {
	ID                  uint            `gorm:"primaryKey;column:id"`
	NormalRetirementAge int             `gorm:"column:normal_retirement_age"`
	EarlyRetirementAge  int             `gorm:"column:early_retirement_age"`
	MinimumTenureYears  int             `gorm:"column:minimum_tenure_years"`
	PenaltyRatePerYear  decimal.Decimal `gorm:"column:penalty_rate_per_year;type:numeric"`
	BenefitDivisor      decimal.Decimal `gorm:"column:benefit_divisor;type:numeric"`
	EffectiveFrom       time.Time       `gorm:"column:effective_from"`
}

func (rulesRow) TableName() string { return "plan_rules" }

// NewPostgresStore opens a connection and prepares the schema.
func NewPostgresStore(cfg config.DatabaseConfig, fallbackRules simulation.PlanRules, logger *slog.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&participantRow{}, &contributionRow{}, &rateRow{}, &rulesRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &PostgresStore{
		db:            db,
		logger:        logger.With(slog.String("component", "postgres_store")),
		fallbackRules: fallbackRules,
	}, nil
}

// Find resolves a participant by ID. Absence is the distinguished
// not-found error kind, not a storage failure.
func (s *PostgresStore) Find(ctx context.Context, id string) (*simulation.Participant, error) {
	var row participantRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if isRecordNotFound(err) {
		return nil, apperrors.NewNotFoundError("participant").WithContext("participant_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query participant: %w", err)
	}
	return &simulation.Participant{
		ID:             row.ID,
		FullName:       row.FullName,
		BirthDate:      row.BirthDate,
		EnrollmentDate: row.EnrollmentDate,
		Affiliation:    row.Affiliation,
		BaseAmount:     row.BaseAmount,
	}, nil
}

// FetchHistory returns the participant's contribution history ordered by
// period, or nil when none exists.
func (s *PostgresStore) FetchHistory(ctx context.Context, participantID string) (*simulation.ContributionHistory, error) {
	var rows []contributionRow
	err := s.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("period ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	history := &simulation.ContributionHistory{
		ParticipantID: participantID,
		Entries:       make([]simulation.ContributionEntry, 0, len(rows)),
	}
	for _, r := range rows {
		history.Entries = append(history.Entries, simulation.ContributionEntry{
			Period:         r.Period,
			EmployeeAmount: r.EmployeeAmount,
			EmployerAmount: r.EmployerAmount,
			BaseAmount:     r.BaseAmount,
		})
	}
	return history, nil
}

// FetchSnapshot loads the rate series and derives the snapshot from it.
// The snapshot is computed fresh per request, never cached.
func (s *PostgresStore) FetchSnapshot(ctx context.Context) (*simulation.RateSnapshot, error) {
	var rows []rateRow
	err := s.db.WithContext(ctx).Order("period ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	series := make([]simulation.RatePoint, 0, len(rows))
	for _, r := range rows {
		series = append(series, simulation.RatePoint{Period: r.Period, Rate: r.Rate})
	}
	snapshot := BuildRateSnapshot(series)
	return &snapshot, nil
}

// FetchRules returns the most recent effective rules row, or the
// configured fallback when the table is empty.
func (s *PostgresStore) FetchRules(ctx context.Context) (*simulation.PlanRules, error) {
	var row rulesRow
	err := s.db.WithContext(ctx).Order("effective_from DESC").First(&row).Error
	if isRecordNotFound(err) {
		rules := s.fallbackRules
		return &rules, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan rules: %w", err)
	}
	return &simulation.PlanRules{
		NormalRetirementAge: row.NormalRetirementAge,
		EarlyRetirementAge:  row.EarlyRetirementAge,
		MinimumTenureYears:  row.MinimumTenureYears,
		PenaltyRatePerYear:  row.PenaltyRatePerYear,
		BenefitDivisor:      row.BenefitDivisor,
	}, nil
}

// isRecordNotFound matches gorm's not-found sentinel even when it arrives
// wrapped, so absence is never misread as a storage failure.
func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Ping verifies connectivity for readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BuildRateSnapshot derives the point-in-time rate view from an ordered
// series: the latest rate plus 5- and 10-period trailing averages.
func BuildRateSnapshot(series []simulation.RatePoint) simulation.RateSnapshot {
	sorted := make([]simulation.RatePoint, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period.Before(sorted[j].Period) })

	return simulation.RateSnapshot{
		CurrentRate: sorted[len(sorted)-1].Rate,
		AvgRate5:    trailingAverage(sorted, 5),
		AvgRate10:   trailingAverage(sorted, 10),
		Series:      sorted,
	}
}

// trailingAverage averages the last n points, or all of them when fewer
// exist.
func trailingAverage(sorted []simulation.RatePoint, n int) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	start := len(sorted) - n
	if start < 0 {
		start = 0
	}
	window := sorted[start:]
	sum := decimal.Zero
	for _, p := range window {
		sum = sum.Add(p.Rate)
	}
	return sum.Div(decimal.NewFromInt(int64(len(window))))
}
