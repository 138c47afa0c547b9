package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ===============================
// User
// ===============================
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"type:varchar(255);not null" json:"-"`
	Role           string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"` // user / admin
	Active         bool       `gorm:"default:true" json:"active"`
	Blocked        bool       `gorm:"default:false" json:"blocked"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`

	Predictions []PredictionLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// ===============================
// PredictionLog
// ===============================
// One row per inference attempt. Success rows carry label and confidence,
// failed rows carry an error message; rows are never updated afterwards.
type PredictionLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         *uint     `gorm:"index" json:"user_id"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	Label          *string   `gorm:"type:varchar(32);index" json:"label"`
	Confidence     *float64  `gorm:"index" json:"confidence"`
	LatencyMs      *float64  `json:"latency_ms"`
	Success        bool      `gorm:"index;default:true" json:"success"`
	ErrorMessage   *string   `json:"error_message"`
	ClientIP       *string   `gorm:"type:varchar(64)" json:"client_ip"`
	TopPredictions JSONMap   `gorm:"type:json" json:"top_predictions"`
}

func (PredictionLog) TableName() string { return "prediction_logs" }

// JSONMap stores a label->probability mapping as an opaque JSON column.
type JSONMap map[string]float64

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
}
