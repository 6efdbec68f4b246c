package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// JobSettings is the immutable configuration snapshot a job loads once at
// run start. Jobs never query settings mid-run, so a concurrent admin edit
// cannot change a pass halfway through.
type JobSettings struct {
	InterestSourceUserID    int64
	HasInterestSource       bool
	ProfessorSalaryEnabled  bool
	ProfessorSalaryDay      int
	SalaryAmountPerStudent  decimal.Decimal
	InactivityFeePercentage decimal.Decimal
	InactivityDestinationID int64
	HasInactivityDest       bool
}

// LoadJobSettings reads the settings table into a snapshot. Missing or
// malformed keys leave zero values; each job validates the keys it actually
// requires.
func LoadJobSettings(ctx context.Context, repo repository.SettingsRepository) (*JobSettings, error) {
	raw, err := repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings snapshot: %w", err)
	}

	snap := &JobSettings{}

	if v, ok := raw[models.SettingInterestSourceUserID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			snap.InterestSourceUserID = id
			snap.HasInterestSource = true
		}
	}
	if v, ok := raw[models.SettingProfessorSalaryEnabled]; ok {
		snap.ProfessorSalaryEnabled = v == "true" || v == "1"
	}
	if v, ok := raw[models.SettingProfessorSalaryDay]; ok {
		if day, err := strconv.Atoi(v); err == nil {
			snap.ProfessorSalaryDay = day
		}
	}
	if v, ok := raw[models.SettingProfessorSalaryPerPupil]; ok {
		if amount, err := decimal.NewFromString(v); err == nil {
			snap.SalaryAmountPerStudent = amount
		}
	}
	if v, ok := raw[models.SettingInactivityFeePercentage]; ok {
		if pct, err := decimal.NewFromString(v); err == nil {
			snap.InactivityFeePercentage = pct
		}
	}
	if v, ok := raw[models.SettingInactivityDestinationID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			snap.InactivityDestinationID = id
			snap.HasInactivityDest = true
		}
	}

	return snap, nil
}
