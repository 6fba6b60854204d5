package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry records one admin mutation forwarded to the backend, successful or not.
type AuditEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	AdminID   uint        `gorm:"index" json:"admin_id"`
	Username  string      `json:"username"`
	Action    string      `gorm:"index" json:"action"`
	Entity    string      `gorm:"index" json:"entity"`
	EntityKey string      `gorm:"index" json:"entity_key"`
	Fields    StringArray `gorm:"type:jsonb" json:"fields"`
	Outcome   string      `json:"outcome"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

type StringArray []string

func (sa StringArray) Value() (driver.Value, error) {
	if len(sa) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(sa)
}

func (sa *StringArray) Scan(value interface{}) error {
	if value == nil {
		*sa = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}
	if len(data) == 0 {
		*sa = nil
		return nil
	}
	return json.Unmarshal(data, sa)
}
