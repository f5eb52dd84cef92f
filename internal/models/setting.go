package models

// Setting is a persisted operator setting, keyed by name.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const SettingLastEmailPrefix = "last_email_prefix"
