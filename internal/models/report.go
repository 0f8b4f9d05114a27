package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Report is the normalized decoder output. It is stored as JSON text in
// vin_logs.report and rendered by the bot. Fields the decoder did not
// return are nil; the history variant fields are omitted when unset.
type Report struct {
	VIN          string  `json:"vin"`
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *string `json:"year"`
	VehicleType  *string `json:"vehicle_type"`
	PlantCountry *string `json:"plant_country"`
	BodyClass    *string `json:"body_class"`

	Owners   *string `json:"owners,omitempty"`
	Mileage  *string `json:"mileage,omitempty"`
	Accident *string `json:"accident,omitempty"`
	Imported *string `json:"imported,omitempty"`
}

// Value implements the driver.Valuer interface
func (r Report) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (r *Report) Scan(value interface{}) error {
	if value == nil {
		*r = Report{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal report value:", value))
	}

	if len(bytes) == 0 {
		*r = Report{}
		return nil
	}

	var result Report
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*r = result
	return nil
}

// VINLog is one successful decode. Rows are only ever inserted.
type VINLog struct {
	ID        string    `gorm:"primarykey;type:varchar(32)"`
	VIN       string    `gorm:"type:varchar(17);index;not null"`
	UserID    string    `gorm:"type:varchar(64);index;not null"`
	Timestamp time.Time `gorm:"index;not null"`
	Report    Report    `gorm:"type:text;not null"`
}

func (VINLog) TableName() string {
	return "vin_logs"
}

// StrPtr returns nil for an empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
