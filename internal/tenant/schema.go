package tenant

import (
	"fmt"
	"strings"

	"lead-service/internal/model"
)

// Lead sources.
const (
	LeadSourceWebsite = "website"
	LeadSourceManual  = "manual"
)

// LeadsTable is the fixed name every tenant's lead collection is registered
// under. Connections are already tenant-isolated, so the name never varies.
const LeadsTable = "leads"

// LeadSchema is the materialized record shape for one tenant's lead
// collection: the fixed metadata fields plus the tenant's selected fields in
// order. It is built once per connection and reused for the connection's
// lifetime.
type LeadSchema struct {
	Selected []model.LeadField
}

// BuildLeadSchema translates a selected-field list into a lead schema.
// Unknown identifiers are dropped, duplicates keep their first position.
// The metadata fields (capture time, source) are always present and are not
// part of the selected list.
func BuildLeadSchema(selectedFields []string) LeadSchema {
	var schema LeadSchema
	seen := make(map[string]bool, len(selectedFields))
	for _, id := range selectedFields {
		f, ok := model.LookupLeadField(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		schema.Selected = append(schema.Selected, f)
	}
	return schema
}

// DDL returns the statements that materialize the schema: create the leads
// table with its metadata columns, then add each selected column. The ALTER
// statements make a previously materialized table pick up fields selected
// after a restart; columns are never dropped.
func (s LeadSchema) DDL() []string {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id bigserial PRIMARY KEY,
	capture_time timestamptz NOT NULL DEFAULT now(),
	source text NOT NULL DEFAULT '%s',
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`, LeadsTable, LeadSourceManual),
	}
	for _, f := range s.Selected {
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN IF NOT EXISTS %q text", LeadsTable, f.Column))
	}
	return stmts
}

// ColumnFor resolves a wire field name to its storage column.
func (s LeadSchema) ColumnFor(jsonName string) (string, bool) {
	for _, f := range s.Selected {
		if f.JSON == jsonName {
			return f.Column, true
		}
	}
	return "", false
}

// FieldIDs returns the selected-field identifiers the schema was built from,
// in order.
func (s LeadSchema) FieldIDs() []string {
	ids := make([]string, len(s.Selected))
	for i, f := range s.Selected {
		ids[i] = f.ID
	}
	return ids
}

// jsonNameForColumn maps a storage column back to its wire name. Metadata
// columns map to themselves.
func (s LeadSchema) jsonNameForColumn(column string) string {
	for _, f := range s.Selected {
		if f.Column == column {
			return f.JSON
		}
	}
	return column
}

// ValidLeadSource reports whether source is a known lead source.
func ValidLeadSource(source string) bool {
	return source == LeadSourceWebsite || source == LeadSourceManual
}

// quoteIdent quotes a Postgres identifier. Tenant database names are
// charset-checked at registration, this guards the schema-DDL path anyway.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
