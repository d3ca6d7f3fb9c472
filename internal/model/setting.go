package model

import "time"

// Known setting keys.
const (
	SettingCollegeName     = "college.name"
	SettingCollegeLogo     = "college.logo_url"
	SettingAcademicYear    = "college.academic_year"
	SettingFinePerDay      = "library.fine_per_day"
	SettingLoanDays        = "library.loan_days"
	SettingAttendanceFloor = "attendance.low_threshold"
)

// PublicSettingKeys are exposed without authentication.
var PublicSettingKeys = []string{
	SettingCollegeName,
	SettingCollegeLogo,
	SettingAcademicYear,
}

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required,min=1,dive,keys,min=1,max=100,endkeys,max=1000"`
}
