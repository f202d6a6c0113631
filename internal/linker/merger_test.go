package linker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/connect-metrics/internal/datanorm"
)

var ts = time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

func callAt(phone, disposition string, stamped bool) datanorm.CallRecord {
	c := datanorm.CallRecord{ToNumber: phone, PhoneNormalized: datanorm.NormalizePhone(phone), Disposition: disposition}
	if stamped {
		t := ts
		c.Timestamp = &t
	}
	return c
}

func validation(phone, carrier string, reachable bool) datanorm.ValidationRecord {
	return datanorm.ValidationRecord{PhoneE164: phone, PhoneNormalized: datanorm.NormalizePhone(phone), Carrier: carrier, Reachable: reachable}
}

func contact(phone, list string) datanorm.ContactRecord {
	return datanorm.ContactRecord{PhoneNumber: phone, PhoneNormalized: datanorm.NormalizePhone(phone), ListName: list}
}

func TestCrossReference_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		data datanorm.Dataset
	}{
		{"no calls", datanorm.Dataset{Contacts: []datanorm.ContactRecord{contact("1", "")}, Validations: []datanorm.ValidationRecord{validation("1", "", true)}}},
		{"no contacts", datanorm.Dataset{Calls: []datanorm.CallRecord{callAt("1", "", true)}, Validations: []datanorm.ValidationRecord{validation("1", "", true)}}},
		{"no validations", datanorm.Dataset{Calls: []datanorm.CallRecord{callAt("1", "", true)}, Contacts: []datanorm.ContactRecord{contact("1", "")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.data).CrossReference()
			assert.Zero(t, got.ValidatedDialed.Count)
			assert.Zero(t, got.ValidatedOnly.Count)
			assert.Zero(t, got.DialedOnly.Count)
			assert.Zero(t, got.FalseNegatives.Count)
			assert.Empty(t, got.CarrierSummary)
			assert.NotNil(t, got.ValidatedOnly.Data)
		})
	}
}

func TestCrossReference_DisjointKeys(t *testing.T) {
	data := datanorm.Dataset{
		Contacts: []datanorm.ContactRecord{
			contact("555-000-0001", "NAICS"),
			contact("555-000-0002", "NAICS"),
		},
		Validations: []datanorm.ValidationRecord{
			validation("+15551110001", "Verizon", true),
			validation("+15551110002", "Verizon", false),
			validation("+15551110003", "AT&T", true),
		},
		Calls: []datanorm.CallRecord{
			callAt("(555) 222-0001", "Connected", true),
			callAt("(555) 222-0002", "No Answer", true),
		},
	}
	distinct := 3 + 2

	got := New(data).CrossReference()

	assert.Equal(t, 0, got.ValidatedDialed.Count)
	assert.Equal(t, 3, got.ValidatedOnly.Count)
	assert.Equal(t, 2, got.DialedOnly.Count)
	assert.Equal(t, distinct, got.ValidatedOnly.Count+got.DialedOnly.Count)
	assert.Equal(t, 0, got.FalseNegatives.Count)
}

func TestCrossReference_Classification(t *testing.T) {
	data := datanorm.Dataset{
		Contacts: []datanorm.ContactRecord{
			contact("5550000001", "NAICS"),
			contact("5550000002", "NAICS"),
			contact("5550000003", "Other"),
			contact("5550000004", "Other"),
		},
		Validations: []datanorm.ValidationRecord{
			validation("+15550000001", "Verizon", false),
			validation("+15550000002", "Verizon", true),
			validation("+15550000005", "T-Mobile", false),
			validation("+15550000005", "T-Mobile", true),
		},
		Calls: []datanorm.CallRecord{
			callAt("5550000001", "No Answer", true),
			callAt("5550000001", "Left voicemail", true),
			callAt("5550000003", "Connected", true),
			callAt("5550000004", "Busy", false),
			callAt("5550000005", "Connected", true),
		},
	}

	got := New(data).CrossReference()

	// 0001: validated and dialed, last call wins; 0005 orphan validation
	// joined with its call.
	require.Equal(t, 2, got.ValidatedDialed.Count)
	first := got.ValidatedDialed.Data[0]
	assert.Equal(t, "5550000001", first.PhoneNumber)
	assert.Equal(t, "NAICS", first.ListName)
	assert.Equal(t, "Left voicemail", first.Disposition)
	require.NotNil(t, first.Reachable)
	assert.False(t, *first.Reachable)
	assert.Equal(t, "Verizon", first.Carrier)
	assert.Equal(t, "+15550000005", got.ValidatedDialed.Data[1].PhoneNumber)
	assert.True(t, *got.ValidatedDialed.Data[1].Reachable, "last validation for a key wins")

	// 0002: validation without a call.
	require.Equal(t, 1, got.ValidatedOnly.Count)
	assert.Equal(t, "5550000002", got.ValidatedOnly.Data[0].PhoneNumber)

	// 0003: dialed, never validated. 0004 has no timestamp so it is unclassified.
	require.Equal(t, 1, got.DialedOnly.Count)
	assert.Equal(t, "Connected", got.DialedOnly.Data[0].Disposition)
	assert.Nil(t, got.DialedOnly.Data[0].Reachable)

	require.Equal(t, 1, got.FalseNegatives.Count)
	assert.Equal(t, "5550000001", got.FalseNegatives.Data[0].PhoneNumber)

	assert.Equal(t, map[string]CarrierStats{
		"Verizon":  {TotalValidated: 2, ReachableCount: 1, ReachablePct: 50},
		"T-Mobile": {TotalValidated: 2, ReachableCount: 1, ReachablePct: 50},
	}, got.CarrierSummary)
}

func TestCrossReference_CarrierDefaultsAndRounding(t *testing.T) {
	data := datanorm.Dataset{
		Contacts: []datanorm.ContactRecord{contact("1", "")},
		Calls:    []datanorm.CallRecord{callAt("2", "Connected", true)},
		Validations: []datanorm.ValidationRecord{
			validation("3", "", true),
			validation("4", "", false),
			validation("5", "", false),
		},
	}
	got := New(data).CrossReference()
	assert.Equal(t, CarrierStats{TotalValidated: 3, ReachableCount: 1, ReachablePct: 33.33}, got.CarrierSummary["Unknown"])
}

func TestLink_SkipsEmptyKeys(t *testing.T) {
	data := datanorm.Dataset{
		Contacts:    []datanorm.ContactRecord{contact("", "NAICS")},
		Validations: []datanorm.ValidationRecord{validation("", "Verizon", true)},
		Calls:       []datanorm.CallRecord{callAt("", "Connected", true)},
	}
	rows := New(data).Link()
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Validation)
	assert.Nil(t, rows[0].Call)
}

func TestHygiene(t *testing.T) {
	data := datanorm.Dataset{
		Validations: []datanorm.ValidationRecord{
			validation("5550000001", "Verizon", true),
			validation("5550000002", "Verizon", true),
			validation("5550000003", "Verizon", false),
			validation("", "Verizon", false),
		},
		Calls: []datanorm.CallRecord{
			callAt("15550000001", "Connected", false),
			callAt("", "Connected", false),
		},
	}

	got := New(data).Hygiene()
	assert.Equal(t, HygieneMetrics{
		TotalValidated:       4,
		ReachableCount:       2,
		ReachableRate:        50,
		InvalidCount:         2,
		InvalidPct:           50,
		ValidatedDialedCount: 1,
		ValidatedDialedPct:   25,
	}, got)
}

func TestHygiene_NoValidations(t *testing.T) {
	got := New(datanorm.Dataset{Calls: []datanorm.CallRecord{callAt("1", "", true)}}).Hygiene()
	assert.Equal(t, HygieneMetrics{}, got)
}

func TestHygiene_ReachableRateIsUnrounded(t *testing.T) {
	data := datanorm.Dataset{
		Validations: []datanorm.ValidationRecord{
			validation("5550000001", "Verizon", true),
			validation("5550000002", "Verizon", false),
			validation("5550000003", "Verizon", false),
		},
	}

	got := New(data).Hygiene()
	assert.InDelta(t, 100.0/3, got.ReachableRate, 1e-9)
	assert.Equal(t, 66.67, got.InvalidPct)
}
