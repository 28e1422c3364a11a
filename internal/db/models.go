package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ServiceList is a JSON-encoded list of service names stored in a TEXT column
type ServiceList []string

// Value implements the driver.Valuer interface
func (l ServiceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *ServiceList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*l = nil
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			*l = nil
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
}

// EnvironmentState tracks the last rendering outcome of an environment
type EnvironmentState string

const (
	StateCreated      EnvironmentState = "created"
	StateRendered     EnvironmentState = "rendered"
	StateRenderFailed EnvironmentState = "render_failed"
)

// Valid reports whether s is one of the known states
func (s EnvironmentState) Valid() bool {
	switch s {
	case StateCreated, StateRendered, StateRenderFailed:
		return true
	}
	return false
}

// Environment is a registered deployment environment. Only the location of
// its configuration and the enabled service names are stored; the topology
// is derived again whenever it is needed.
type Environment struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	ConfigPath  string           `json:"config_path" db:"config_path"`
	State       EnvironmentState `json:"state" db:"state"`
	Services    ServiceList      `json:"services" db:"services"`
	ComposePath string           `json:"compose_path,omitempty" db:"compose_path"`
	LastError   string           `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for Environment
func (Environment) TableName() string {
	return "environments"
}
