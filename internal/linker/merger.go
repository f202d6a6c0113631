// Package linker joins the three canonical collections on the normalized
// phone key and classifies each phone by whether it was validated, dialed,
// or both.
package linker

import (
	"math"
	"time"

	"github.com/ignite/connect-metrics/internal/datanorm"
)

// falseNegativeDispositions are outcomes that prove a number was live.
var falseNegativeDispositions = map[string]bool{
	"Connected":      true,
	"Left voicemail": true,
}

// Merger cross-references one Dataset.
type Merger struct {
	data datanorm.Dataset
}

func New(data datanorm.Dataset) *Merger {
	return &Merger{data: data}
}

// LinkedRow is one phone key after the joins. Any side may be nil.
type LinkedRow struct {
	Key        string
	Contact    *datanorm.ContactRecord
	Validation *datanorm.ValidationRecord
	Call       *datanorm.CallRecord
}

func (r LinkedRow) validated() bool { return r.Validation != nil }
func (r LinkedRow) dialed() bool    { return r.Call != nil && r.Call.Timestamp != nil }

// Entry is the reported view of a LinkedRow.
type Entry struct {
	PhoneNumber string     `json:"phone_number"`
	ListName    string     `json:"list_name,omitempty"`
	Reachable   *bool      `json:"is_reachable,omitempty"`
	Carrier     string     `json:"carrier,omitempty"`
	Disposition string     `json:"disposition,omitempty"`
	Datetime    *time.Time `json:"datetime,omitempty"`
}

func (r LinkedRow) entry() Entry {
	e := Entry{PhoneNumber: r.Key}
	switch {
	case r.Contact != nil:
		e.PhoneNumber = r.Contact.PhoneNumber
		e.ListName = r.Contact.ListName
	case r.Validation != nil:
		e.PhoneNumber = r.Validation.PhoneE164
	case r.Call != nil:
		e.PhoneNumber = r.Call.ToNumber
	}
	if r.Validation != nil {
		reachable := r.Validation.Reachable
		e.Reachable = &reachable
		e.Carrier = r.Validation.Carrier
	}
	if r.Call != nil {
		e.Disposition = r.Call.Disposition
		e.Datetime = r.Call.Timestamp
	}
	return e
}

// Bucket is a classified set of linked rows.
type Bucket struct {
	Count int     `json:"count"`
	Data  []Entry `json:"data"`
}

func (b *Bucket) add(r LinkedRow) {
	b.Count++
	b.Data = append(b.Data, r.entry())
}

// CarrierStats is the reachability of one carrier's validations.
type CarrierStats struct {
	TotalValidated int     `json:"total_validated"`
	ReachableCount int     `json:"reachable_count"`
	ReachablePct   float64 `json:"reachable_pct"`
}

// CrossReference is the result of linking the three sources.
type CrossReference struct {
	ValidatedDialed Bucket                  `json:"validated_dialed"`
	ValidatedOnly   Bucket                  `json:"validated_only"`
	DialedOnly      Bucket                  `json:"dialed_only"`
	CarrierSummary  map[string]CarrierStats `json:"carrier_summary"`
	FalseNegatives  Bucket                  `json:"false_negatives"`
}

func emptyCrossReference() CrossReference {
	return CrossReference{
		ValidatedDialed: Bucket{Data: []Entry{}},
		ValidatedOnly:   Bucket{Data: []Entry{}},
		DialedOnly:      Bucket{Data: []Entry{}},
		CarrierSummary:  map[string]CarrierStats{},
		FalseNegatives:  Bucket{Data: []Entry{}},
	}
}

// CrossReference links contacts to validations and calls and classifies
// every row. It returns an empty result unless all three collections are
// non-empty.
func (m *Merger) CrossReference() CrossReference {
	out := emptyCrossReference()
	d := m.data
	if len(d.Calls) == 0 || len(d.Contacts) == 0 || len(d.Validations) == 0 {
		return out
	}

	for _, r := range m.Link() {
		switch {
		case r.validated() && r.dialed():
			out.ValidatedDialed.add(r)
		case r.validated():
			out.ValidatedOnly.add(r)
		case r.dialed():
			out.DialedOnly.add(r)
		}
		if r.Validation != nil && !r.Validation.Reachable &&
			r.Call != nil && falseNegativeDispositions[r.Call.Disposition] {
			out.FalseNegatives.add(r)
		}
	}

	for _, v := range d.Validations {
		carrier := v.Carrier
		if carrier == "" {
			carrier = "Unknown"
		}
		s := out.CarrierSummary[carrier]
		s.TotalValidated++
		if v.Reachable {
			s.ReachableCount++
		}
		out.CarrierSummary[carrier] = s
	}
	for carrier, s := range out.CarrierSummary {
		s.ReachablePct = pct(s.ReachableCount, s.TotalValidated)
		out.CarrierSummary[carrier] = s
	}
	return out
}

// Link performs powerlist ⟕ telesign ⟕ kixie on the phone key, then appends
// validation keys absent from the powerlist (joined with calls) and finally
// call keys seen in neither. Duplicate keys on a joined side collapse to the
// last record with that key. Records without a key are not linked.
func (m *Merger) Link() []LinkedRow {
	d := m.data
	validations, validationKeys := indexValidations(d.Validations)
	calls, callKeys := indexCalls(d.Calls)

	rows := make([]LinkedRow, 0, len(d.Contacts)+len(validationKeys)+len(callKeys))
	linked := make(map[string]bool)
	for i := range d.Contacts {
		c := &d.Contacts[i]
		row := LinkedRow{Key: c.PhoneNormalized, Contact: c}
		if c.PhoneNormalized != "" {
			row.Validation = validations[c.PhoneNormalized]
			row.Call = calls[c.PhoneNormalized]
			linked[c.PhoneNormalized] = true
		}
		rows = append(rows, row)
	}

	for _, k := range validationKeys {
		if linked[k] {
			continue
		}
		linked[k] = true
		rows = append(rows, LinkedRow{Key: k, Validation: validations[k], Call: calls[k]})
	}
	for _, k := range callKeys {
		if linked[k] {
			continue
		}
		linked[k] = true
		rows = append(rows, LinkedRow{Key: k, Call: calls[k]})
	}
	return rows
}

func indexValidations(recs []datanorm.ValidationRecord) (map[string]*datanorm.ValidationRecord, []string) {
	idx := make(map[string]*datanorm.ValidationRecord, len(recs))
	var keys []string
	for i := range recs {
		k := recs[i].PhoneNormalized
		if k == "" {
			continue
		}
		if _, seen := idx[k]; !seen {
			keys = append(keys, k)
		}
		idx[k] = &recs[i]
	}
	return idx, keys
}

func indexCalls(recs []datanorm.CallRecord) (map[string]*datanorm.CallRecord, []string) {
	idx := make(map[string]*datanorm.CallRecord, len(recs))
	var keys []string
	for i := range recs {
		k := recs[i].PhoneNormalized
		if k == "" {
			continue
		}
		if _, seen := idx[k]; !seen {
			keys = append(keys, k)
		}
		idx[k] = &recs[i]
	}
	return idx, keys
}

// HygieneMetrics summarizes validation quality independent of the join.
type HygieneMetrics struct {
	TotalValidated       int     `json:"total_validated"`
	ReachableCount       int     `json:"reachable_count"`
	ReachableRate        float64 `json:"reachable_rate"`
	InvalidCount         int     `json:"invalid_count"`
	InvalidPct           float64 `json:"invalid_pct"`
	ValidatedDialedCount int     `json:"validated_dialed_count"`
	ValidatedDialedPct   float64 `json:"validated_dialed_pct"`
}

// Hygiene counts validation rows, how many were reachable, and how many
// were also dialed (their key appears anywhere in the calls). It returns the
// zero value when there are no validations.
func (m *Merger) Hygiene() HygieneMetrics {
	vals := m.data.Validations
	if len(vals) == 0 {
		return HygieneMetrics{}
	}

	dialed := make(map[string]bool, len(m.data.Calls))
	for _, c := range m.data.Calls {
		if c.PhoneNormalized != "" {
			dialed[c.PhoneNormalized] = true
		}
	}

	var h HygieneMetrics
	h.TotalValidated = len(vals)
	for _, v := range vals {
		if v.Reachable {
			h.ReachableCount++
		}
		if v.PhoneNormalized != "" && dialed[v.PhoneNormalized] {
			h.ValidatedDialedCount++
		}
	}
	h.InvalidCount = h.TotalValidated - h.ReachableCount
	if h.TotalValidated > 0 {
		h.ReachableRate = float64(h.ReachableCount) / float64(h.TotalValidated) * 100
	}
	h.InvalidPct = pct(h.InvalidCount, h.TotalValidated)
	h.ValidatedDialedPct = pct(h.ValidatedDialedCount, h.TotalValidated)
	return h
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
