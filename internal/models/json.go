package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a schemaless jsonb column, used for event metadata and tier
// configurations.
type JSON map[string]interface{}

// Value serializes the map for the database driver.
func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan reads the column back. Non-byte values leave the map untouched.
func (j *JSON) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// MarshalJSON renders a nil map as JSON null.
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes into the map in place.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("nil pointer")
	}
	return json.Unmarshal(data, &j)
}
