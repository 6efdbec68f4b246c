package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"valcoin-api/internal/models"
)

func TestLoadJobSettings(t *testing.T) {
	repo := &MockSettingsRepository{}
	repo.On("GetAll", mock.Anything).Return(map[string]string{
		models.SettingInterestSourceUserID:    "9",
		models.SettingProfessorSalaryEnabled:  "true",
		models.SettingProfessorSalaryDay:      "15",
		models.SettingProfessorSalaryPerPupil: "5.00",
		models.SettingInactivityFeePercentage: "2.5",
	}, nil)

	snap, err := LoadJobSettings(context.Background(), repo)

	assert.NoError(t, err)
	assert.True(t, snap.HasInterestSource)
	assert.Equal(t, int64(9), snap.InterestSourceUserID)
	assert.True(t, snap.ProfessorSalaryEnabled)
	assert.Equal(t, 15, snap.ProfessorSalaryDay)
	assert.True(t, snap.SalaryAmountPerStudent.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, snap.InactivityFeePercentage.Equal(decimal.RequireFromString("2.5")))
	assert.False(t, snap.HasInactivityDest)
}

func TestLoadJobSettings_MalformedValuesLeaveZeroes(t *testing.T) {
	repo := &MockSettingsRepository{}
	repo.On("GetAll", mock.Anything).Return(map[string]string{
		models.SettingInterestSourceUserID:    "not-a-number",
		models.SettingProfessorSalaryEnabled:  "yes",
		models.SettingInactivityFeePercentage: "",
	}, nil)

	snap, err := LoadJobSettings(context.Background(), repo)

	assert.NoError(t, err)
	assert.False(t, snap.HasInterestSource)
	assert.False(t, snap.ProfessorSalaryEnabled)
	assert.True(t, snap.InactivityFeePercentage.IsZero())
}
