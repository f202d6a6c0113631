package datanorm

import "strings"

// CanonicalField is a normalized field name shared by the schema normalizer
// and the dataset loaders.
type CanonicalField string

// Kixie call history.
const (
	FieldDisposition    CanonicalField = "Disposition"
	FieldToNumber       CanonicalField = "To Number"
	FieldDate           CanonicalField = "Date"
	FieldTime           CanonicalField = "Time"
	FieldAgentFirstName CanonicalField = "Agent First Name"
	FieldAgentLastName  CanonicalField = "Agent Last Name"
	FieldStatus         CanonicalField = "Status"
	FieldDuration       CanonicalField = "Duration"
	FieldSource         CanonicalField = "Source"
)

// Telesign validation exports.
const (
	FieldPhoneE164      CanonicalField = "phone_e164"
	FieldReachable      CanonicalField = "is_reachable"
	FieldCarrier        CanonicalField = "carrier"
	FieldRiskLevel      CanonicalField = "risk_level"
	FieldValidationType CanonicalField = "validation_type"
)

// Powerlist contacts.
const (
	FieldPhoneNumber  CanonicalField = "Phone Number"
	FieldConnected    CanonicalField = "Connected"
	FieldAttemptCount CanonicalField = "Attempt Count"
	FieldListName     CanonicalField = "List Name"
	FieldDateAdded    CanonicalField = "Date Added"
)

// FieldAliases is the ordered list of header spellings accepted for one
// canonical field.
type FieldAliases struct {
	Field   CanonicalField
	Aliases []string
}

var kixieSchema = []FieldAliases{
	{FieldDisposition, []string{"Disposition", "disposition", "Outcome", "outcome", "Call Outcome", "call_outcome"}},
	{FieldToNumber, []string{"To Number", "to_number", "To", "to", "Phone", "phone", "Phone Number", "phone_number", "Number", "number"}},
	{FieldDate, []string{"Date", "date", "call_date", "Call Date"}},
	{FieldTime, []string{"Time", "time", "call_time", "Call Time"}},
	{FieldAgentFirstName, []string{"Agent First Name", "agent_first_name", "first_name", "First Name"}},
	{FieldAgentLastName, []string{"Agent Last Name", "agent_last_name", "last_name", "Last Name"}},
	{FieldStatus, []string{"Status", "status", "call_status", "Call Status"}},
	{FieldDuration, []string{"Duration", "duration", "call_duration", "Call Duration"}},
	{FieldSource, []string{"Source", "source", "call_source", "Call Source"}},
}

var telesignSchema = []FieldAliases{
	{FieldPhoneE164, []string{"phone_e164", "contact_mobile_phone", "phone", "mobile_phone", "Contact Mobile Phone"}},
	{FieldReachable, []string{"is_reachable", "reachable", "live"}},
	{FieldCarrier, []string{"carrier", "phone_carrier", "Carrier"}},
	{FieldRiskLevel, []string{"risk_level", "risk", "Risk Level"}},
	{FieldValidationType, []string{"validation_type", "validation", "Validation Type"}},
}

var powerlistSchema = []FieldAliases{
	{FieldPhoneNumber, []string{"Phone Number", "phone_number", "Phone", "phone", "PhoneNumber"}},
	{FieldConnected, []string{"Connected", "connected", "Is Connected", "is_connected"}},
	{FieldAttemptCount, []string{"Attempt Count", "attempt_count", "Attempts", "attempts", "Attempts Count"}},
	{FieldListName, []string{"List Name", "list_name", "List", "list", "ListName", "Powerlist Name", "powerlist_name"}},
	{FieldDateAdded, []string{"Date Added", "date_added", "DateAdded"}},
}

var schemas = map[FileType][]FieldAliases{
	FileKixie:           kixieSchema,
	FileTelesignWith:    telesignSchema,
	FileTelesignWithout: telesignSchema,
	FilePowerlist:       powerlistSchema,
}

var requiredFields = map[FileType][]CanonicalField{
	FileKixie:           {FieldDisposition, FieldToNumber},
	FileTelesignWith:    {FieldPhoneE164},
	FileTelesignWithout: {FieldPhoneE164},
	FilePowerlist:       {FieldPhoneNumber, FieldConnected, FieldAttemptCount},
}

// uploadFields are the fields the schema normalizer renames. The remaining
// schema fields are resolved only by the loaders; on upload their headers
// are carried through as written.
var uploadFields = map[FileType][]CanonicalField{
	FileKixie:           {FieldDisposition, FieldToNumber},
	FileTelesignWith:    {FieldPhoneE164},
	FileTelesignWithout: {FieldPhoneE164},
	FilePowerlist:       {FieldPhoneNumber, FieldConnected, FieldAttemptCount, FieldListName},
}

func mappedSchema(ft FileType) []FieldAliases {
	var out []FieldAliases
	for _, fa := range schemas[ft] {
		if containsField(uploadFields[ft], fa.Field) {
			out = append(out, fa)
		}
	}
	return out
}

func containsField(list []CanonicalField, f CanonicalField) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}

// Schema returns the alias table for ft in canonical output order.
func Schema(ft FileType) []FieldAliases { return schemas[ft] }

// RequiredFields returns the canonical fields an upload of ft must carry.
func RequiredFields(ft FileType) []CanonicalField { return requiredFields[ft] }

func aliasesFor(ft FileType, field CanonicalField) []string {
	for _, fa := range schemas[ft] {
		if fa.Field == field {
			return fa.Aliases
		}
	}
	return nil
}

// ColumnMapping is the resolved mapping from a header row to canonical
// fields.
type ColumnMapping struct {
	// Source maps each present canonical field to the header supplying it.
	Source map[CanonicalField]string
	// Fields lists the present canonical fields in schema order.
	Fields []CanonicalField
	// Carried lists headers not covered by any alias, in header order.
	Carried     []string
	Ambiguities []AliasAmbiguity
	RawNames    []string
}

// MapColumns resolves header against the upload fields of ft. The first
// header in header order that is an alias of a field supplies that field.
func MapColumns(header []string, ft FileType) *ColumnMapping {
	m := &ColumnMapping{
		Source:   make(map[CanonicalField]string),
		RawNames: header,
	}

	schema := mappedSchema(ft)
	covered := make(map[string]bool)
	for _, fa := range schema {
		for _, a := range fa.Aliases {
			covered[a] = true
		}
	}

	for _, fa := range schema {
		var matched []string
		for _, h := range header {
			h = strings.TrimSpace(h)
			if containsString(fa.Aliases, h) && !containsString(matched, h) {
				matched = append(matched, h)
			}
		}
		if len(matched) == 0 {
			continue
		}
		m.Source[fa.Field] = matched[0]
		m.Fields = append(m.Fields, fa.Field)
		if len(matched) > 1 {
			m.Ambiguities = append(m.Ambiguities, AliasAmbiguity{
				Field:   fa.Field,
				Headers: matched,
				Chosen:  matched[0],
			})
		}
	}

	seen := make(map[string]bool)
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h == "" || covered[h] || seen[h] {
			continue
		}
		seen[h] = true
		m.Carried = append(m.Carried, h)
	}
	return m
}

// Missing returns the required fields of ft absent from the mapping.
func (m *ColumnMapping) Missing(ft FileType) []string {
	var missing []string
	for _, f := range requiredFields[ft] {
		if _, ok := m.Source[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	return missing
}

// Resolve returns the first non-empty value among the aliases of field in
// row, trimmed. This is the single lookup used by every loader.
func Resolve(row Row, ft FileType, field CanonicalField) (string, bool) {
	for _, a := range aliasesFor(ft, field) {
		if v := strings.TrimSpace(row[a]); v != "" {
			return v, true
		}
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
