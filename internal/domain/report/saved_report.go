package report

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrReportNotFound    = errors.New("saved report not found")
	ErrInvalidDefinition = errors.New("invalid report definition")
)

// Owner is the user a scheduled report is mailed to.
type Owner struct {
	ID       int64
	Name     string
	Email    string
	Timezone sql.NullString
}

// SavedReport is a stored query definition plus schedule bookkeeping.
type SavedReport struct {
	ID             int64
	Name           string
	Family         Family
	DefinitionJSON []byte
	ScheduleCron   sql.NullString
	LastRunAt      sql.NullTime
	Owner          Owner
	CreatedAt      time.Time
}

type storedDefinition struct {
	Filters map[string]any `json:"filters"`
}

// Filters decodes definition_json.filters. An empty payload yields no filters.
func (r *SavedReport) Filters() (map[string]any, error) {
	if len(r.DefinitionJSON) == 0 {
		return map[string]any{}, nil
	}
	var stored storedDefinition
	if err := json.Unmarshal(r.DefinitionJSON, &stored); err != nil {
		return nil, fmt.Errorf("%w: report %d: %v", ErrInvalidDefinition, r.ID, err)
	}
	if stored.Filters == nil {
		stored.Filters = map[string]any{}
	}
	return stored.Filters, nil
}

func (r *SavedReport) Scheduled() bool {
	return r.ScheduleCron.Valid && r.ScheduleCron.String != ""
}
