package models

import "time"

// Setting keys read by the settlement jobs. Writes are owned by the admin UI.
const (
	SettingInterestSourceUserID     = "interestSourceUserId"
	SettingProfessorSalaryEnabled   = "professorSalaryEnabled"
	SettingProfessorSalaryDay       = "professorSalaryDay"
	SettingProfessorSalaryPerPupil  = "professorSalaryAmountPerStudent"
	SettingInactivityFeePercentage  = "inactivityFeePercentage"
	SettingInactivityDestinationID  = "ivaDestinationUserId"
)

// Setting is one row of the process-wide key/value configuration table.
// Values are stored JSON-quoted; readers strip the quoting before parsing.
type Setting struct {
	Key       string    `db:"chave" json:"key"`
	Value     string    `db:"valor" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
