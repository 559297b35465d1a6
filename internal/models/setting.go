package models

import "time"

// AccessSetting is the administrator-editable access policy record. At most
// one row is activated at a time; SettingRepo.Activate enforces that inside
// a single transaction.
type AccessSetting struct {
	ID                          int64     `json:"id"`
	Name                        string    `json:"name"`
	PageLockSeconds             int       `json:"page_lock_seconds"`
	ActivityTimeoutSeconds      int       `json:"activity_timeout_seconds"`
	MaxAdminsNumber             int       `json:"max_admins_number"`
	MaxModersNumber             int       `json:"max_moders_number"`
	ActivityPeriodCounter       int64     `json:"activity_period_counter"`
	ActivityCounterMaxThreshold int64     `json:"activity_counter_max_threshold"`
	IsActivatedNow              bool      `json:"is_activated_now"`
	CreatedAt                   time.Time `json:"created_at"`
}
