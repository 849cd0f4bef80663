package model

// LeadField describes one configurable lead-capture field: the identifier
// admins select, the JSON name it is exposed under, and the column it is
// stored in. All configurable fields are text.
type LeadField struct {
	ID     string // identifier stored in Admin.SelectedFields
	JSON   string // field name on the wire
	Column string // column name in the tenant leads table
}

// leadFields is the closed set of selectable lead fields, in canonical
// order. Identifiers outside this table are dropped when a schema is built.
var leadFields = []LeadField{
	{ID: "name", JSON: "name", Column: "name"},
	{ID: "organisation", JSON: "organization", Column: "organization"},
	{ID: "email", JSON: "email", Column: "email"},
	{ID: "inquiryType", JSON: "inquiryType", Column: "inquiry_type"},
	{ID: "designation", JSON: "designation", Column: "designation"},
	{ID: "mobileNumber", JSON: "phone", Column: "phone"},
	{ID: "comments", JSON: "comments", Column: "comments"},
	{ID: "address", JSON: "address", Column: "address"},
	{ID: "pincode", JSON: "pincode", Column: "pincode"},
	{ID: "purpose", JSON: "purpose", Column: "purpose"},
	{ID: "type", JSON: "type", Column: "type"},
}

var leadFieldsByID = func() map[string]LeadField {
	m := make(map[string]LeadField, len(leadFields))
	for _, f := range leadFields {
		m[f.ID] = f
	}
	return m
}()

// LookupLeadField resolves a selected-field identifier against the fixed
// translation table.
func LookupLeadField(id string) (LeadField, bool) {
	f, ok := leadFieldsByID[id]
	return f, ok
}

// LeadFieldIDs returns the identifiers of every selectable lead field in
// canonical order.
func LeadFieldIDs() []string {
	ids := make([]string, len(leadFields))
	for i, f := range leadFields {
		ids[i] = f.ID
	}
	return ids
}
