package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Info is the opaque JSON payload attached to projects, tasks and task
// runs. It is stored in a jsonb column and passed through the API as-is.
type Info map[string]any

// Value implements driver.Valuer so Info can be written to a jsonb column.
// A nil Info is stored as SQL NULL.
func (i Info) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}
	return json.Marshal(i)
}

// Scan implements sql.Scanner for reading jsonb columns.
func (i *Info) Scan(src any) error {
	if src == nil {
		*i = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Info", src)
	}
	return json.Unmarshal(data, i)
}
