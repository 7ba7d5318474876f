package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── PostgreSQL JSONB ──

// JSONB holds a jsonb column verbatim. Payload columns keep whatever shape the
// writer used; interpretation is left to the normalize package.
type JSONB json.RawMessage

// Scan implements sql.Scanner.
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("JSONB.Scan: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer. A nil or empty value is stored as SQL NULL.
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("JSONB.Value: invalid json %q", string(j))
	}
	return string(j), nil
}

// MarshalJSON keeps the stored document as-is in API responses.
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON accepts any json value.
func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSONB.UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[:0], data...)
	return nil
}

// Raw exposes the document for decoding.
func (j JSONB) Raw() json.RawMessage { return json.RawMessage(j) }

// IsNull reports whether the column is absent or json null.
func (j JSONB) IsNull() bool {
	return len(j) == 0 || bytes.Equal(bytes.TrimSpace(j), []byte("null"))
}

// MustJSONB marshals v, panicking on failure. Intended for literals and tests.
func MustJSONB(v interface{}) JSONB {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return JSONB(b)
}

// BaseModel common audit columns
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
