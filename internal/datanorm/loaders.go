package datanorm

import "time"

const (
	defaultUnknown  = "Unknown"
	defaultListName = "Default List"
)

// LoadKixie maps parsed call-history rows onto CallRecords. Timestamps are
// interpreted in loc (UTC when nil). Rows never fail; unusable fields
// degrade to defaults and are listed in Defaulted.
func LoadKixie(rows []Row, loc *time.Location) []CallRecord {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]CallRecord, 0, len(rows))
	for _, row := range rows {
		var rec CallRecord
		get := func(f CanonicalField) string {
			v, _ := Resolve(row, FileKixie, f)
			return v
		}

		rec.Disposition = get(FieldDisposition)
		if rec.Disposition == "" {
			rec.Defaulted = append(rec.Defaulted, string(FieldDisposition))
		}
		rec.ToNumber = get(FieldToNumber)
		rec.PhoneNormalized = NormalizePhone(rec.ToNumber)
		if rec.PhoneNormalized == "" {
			rec.Defaulted = append(rec.Defaulted, string(FieldToNumber))
		}

		rec.Date = get(FieldDate)
		rec.Time = get(FieldTime)
		rec.Timestamp = parseCallTimestamp(rec.Date, rec.Time, loc)
		if rec.Timestamp == nil {
			rec.Defaulted = append(rec.Defaulted, "datetime")
		}

		rec.AgentFirstName = get(FieldAgentFirstName)
		rec.AgentLastName = get(FieldAgentLastName)
		rec.AgentName = agentName(rec.AgentFirstName, rec.AgentLastName)
		if rec.AgentName == defaultUnknown {
			rec.Defaulted = append(rec.Defaulted, "agent_name")
		}

		rec.Status = get(FieldStatus)
		rec.Duration = get(FieldDuration)
		rec.Source = get(FieldSource)
		out = append(out, rec)
	}
	return out
}

// LoadTelesign maps the two Telesign exports onto ValidationRecords, tagging
// each record with the export it came from. Either input may be nil.
func LoadTelesign(withLive, withoutLive []Row) []ValidationRecord {
	out := make([]ValidationRecord, 0, len(withLive)+len(withoutLive))
	out = appendValidations(out, withLive, FileTelesignWith, SourceWithLive)
	out = appendValidations(out, withoutLive, FileTelesignWithout, SourceWithoutLive)
	return out
}

func appendValidations(out []ValidationRecord, rows []Row, ft FileType, src ValidationSource) []ValidationRecord {
	for _, row := range rows {
		rec := ValidationRecord{Source: src}
		orDefault := func(f CanonicalField) string {
			if v, ok := Resolve(row, ft, f); ok {
				return v
			}
			rec.Defaulted = append(rec.Defaulted, string(f))
			return defaultUnknown
		}

		rec.PhoneE164, _ = Resolve(row, ft, FieldPhoneE164)
		rec.PhoneNormalized = NormalizePhone(rec.PhoneE164)
		if rec.PhoneNormalized == "" {
			rec.Defaulted = append(rec.Defaulted, string(FieldPhoneE164))
		}

		rec.Reachable = src.DefaultReachable()
		raw, _ := Resolve(row, ft, FieldReachable)
		if v, ok := parseBool(raw); ok {
			rec.Reachable = v
		} else {
			rec.Defaulted = append(rec.Defaulted, string(FieldReachable))
		}

		rec.Carrier = orDefault(FieldCarrier)
		rec.RiskLevel = orDefault(FieldRiskLevel)
		rec.ValidationType = orDefault(FieldValidationType)
		out = append(out, rec)
	}
	return out
}

// LoadPowerlist maps parsed contact rows onto ContactRecords.
func LoadPowerlist(rows []Row) []ContactRecord {
	out := make([]ContactRecord, 0, len(rows))
	for _, row := range rows {
		var rec ContactRecord
		get := func(f CanonicalField) (string, bool) {
			return Resolve(row, FilePowerlist, f)
		}

		rec.PhoneNumber, _ = get(FieldPhoneNumber)
		rec.PhoneNormalized = NormalizePhone(rec.PhoneNumber)
		if rec.PhoneNormalized == "" {
			rec.Defaulted = append(rec.Defaulted, string(FieldPhoneNumber))
		}

		raw, _ := get(FieldConnected)
		if n, ok := parseCount(raw); ok {
			if n > 0 {
				rec.Connected = 1
			}
		} else if b, ok := parseBool(raw); ok {
			if b {
				rec.Connected = 1
			}
		} else {
			rec.Defaulted = append(rec.Defaulted, string(FieldConnected))
		}

		raw, _ = get(FieldAttemptCount)
		if n, ok := parseCount(raw); ok {
			rec.AttemptCount = n
		} else {
			rec.Defaulted = append(rec.Defaulted, string(FieldAttemptCount))
		}

		if v, ok := get(FieldListName); ok {
			rec.ListName = v
		} else {
			rec.ListName = defaultListName
			rec.Defaulted = append(rec.Defaulted, string(FieldListName))
		}

		rec.DateAdded, _ = get(FieldDateAdded)
		out = append(out, rec)
	}
	return out
}
