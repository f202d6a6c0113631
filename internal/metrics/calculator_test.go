package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

var manila = time.FixedZone("PHT", 8*60*60)

var fixedNow = clock.Fixed{T: time.Date(2025, 10, 15, 9, 0, 0, 0, manila)}

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, manila)
	return &t
}

func call(disposition, phone string, ts *time.Time) datanorm.CallRecord {
	return datanorm.CallRecord{
		Disposition:     disposition,
		ToNumber:        phone,
		PhoneNormalized: datanorm.NormalizePhone(phone),
		Timestamp:       ts,
	}
}

func contact(list string, attempts int) datanorm.ContactRecord {
	return datanorm.ContactRecord{ListName: list, AttemptCount: attempts}
}

func TestBaseline_ConnectRate(t *testing.T) {
	var calls []datanorm.CallRecord
	for i := 0; i < 3; i++ {
		calls = append(calls, call("Connected", "5550000001", nil))
	}
	for i := 0; i < 7; i++ {
		calls = append(calls, call("No Answer", "5550000002", nil))
	}

	calc := New(datanorm.Dataset{Calls: calls}, DefaultConfig(), fixedNow)
	got := calc.Baseline()

	assert.Equal(t, 30.00, got.ConnectRate)
	assert.Equal(t, 10, got.TotalCalls)
	assert.Equal(t, 3, got.ConnectedCalls)
	// 10 / (10 + 10*(1/2)) * 100
	assert.Equal(t, 66.67, got.AnswerEventPct)
	assert.Equal(t, 7.00, got.AvgAttemptsLostRace)
	assert.Equal(t, 0.0, got.CooldownPerDay)
}

func TestBaseline_Empty(t *testing.T) {
	calc := New(datanorm.Dataset{}, DefaultConfig(), fixedNow)
	assert.Equal(t, Baseline{}, calc.Baseline())
	assert.Equal(t, Pilot{}, calc.Pilot(PilotOptions{}))
	assert.Equal(t, Cooldown{}, calc.Cooldown())
	assert.Empty(t, calc.WeeklyTrends().Weeks)
	assert.Empty(t, calc.AttemptDistribution("").AttemptCounts)
}

func TestBaseline_LostRaceAndCooldownPerDay(t *testing.T) {
	data := datanorm.Dataset{
		Calls: []datanorm.CallRecord{
			call("No Answer", "5550000001", nil),
			call("No Answer", "5550000001", nil),
			call("Busy", "5550000002", nil),
			call("No Answer", "", nil),
			call("DC Booked", "5550000003", nil),
		},
		Contacts: []datanorm.ContactRecord{
			contact("A", 20), contact("A", 25), contact("A", 19),
		},
	}
	got := New(data, DefaultConfig(), fixedNow).Baseline()

	assert.Equal(t, 1.5, got.AvgAttemptsLostRace)
	assert.Equal(t, 20.0, got.ConnectRate)
	assert.InDelta(t, 2.0/7, got.CooldownPerDay, 1e-9)
}

func TestBaseline_DialAtATime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DialAtATime = 1
	data := datanorm.Dataset{Calls: []datanorm.CallRecord{call("Connected", "1", nil)}}

	assert.Equal(t, 100.0, New(data, cfg, fixedNow).Baseline().AnswerEventPct)
}

func TestPilot(t *testing.T) {
	calls := []datanorm.CallRecord{
		call("Connected", "5550000001", nil),
		call("No Answer", "5550000002", nil),
		call("No Answer", "5550000003", nil),
		call("No Answer", "5550000004", nil),
	}

	t.Run("pilot list match is case-insensitive", func(t *testing.T) {
		data := datanorm.Dataset{
			Calls:    calls,
			Contacts: []datanorm.ContactRecord{contact("naics Q4", 1), contact("Other", 1), contact("NAICS-west", 2)},
		}
		got := New(data, DefaultConfig(), fixedNow).Pilot(PilotOptions{})

		assert.Equal(t, 2, got.SampleSize)
		assert.True(t, got.PilotListMatched)
		assert.Equal(t, 32.5, got.TargetConnectRate)
		assert.Equal(t, 30.0, got.TargetConnectUpliftPct)
		assert.Equal(t, 25.0, got.SuccessConnectUpliftPct)
		assert.Equal(t, 15.0, got.SuccessVoicemailUpliftPct)
		assert.Equal(t, 3, got.TestDurationDays)
		assert.Equal(t, 2, got.DialAtATime)
		assert.Equal(t, 20, got.MaxAttempts)
	})

	t.Run("falls back to first hundred contacts", func(t *testing.T) {
		contacts := make([]datanorm.ContactRecord, 150)
		for i := range contacts {
			contacts[i] = contact("Default List", 0)
		}
		got := New(datanorm.Dataset{Contacts: contacts}, DefaultConfig(), fixedNow).Pilot(PilotOptions{DialAtATime: 3, MaxAttempts: 10})

		assert.Equal(t, 100, got.SampleSize)
		assert.False(t, got.PilotListMatched)
		assert.Equal(t, 0.0, got.TargetConnectRate)
		assert.Equal(t, 3, got.DialAtATime)
		assert.Equal(t, 10, got.MaxAttempts)
	})

	t.Run("small list fallback uses every contact", func(t *testing.T) {
		data := datanorm.Dataset{Contacts: []datanorm.ContactRecord{contact("x", 0), contact("y", 0)}}
		assert.Equal(t, 2, New(data, DefaultConfig(), fixedNow).Pilot(PilotOptions{}).SampleSize)
	})
}

func TestWeeklyTrends(t *testing.T) {
	data := datanorm.Dataset{Calls: []datanorm.CallRecord{
		call("No Answer", "1", nil),
		call("Connected", "1", at(2025, 10, 15, 10)),
		call("Left voicemail", "2", at(2025, 10, 14, 10)),
		call("Busy", "3", at(2025, 10, 1, 10)),
		call("Left voicemail", "4", at(2025, 10, 7, 10)),
		call("No Answer", "5", at(2025, 10, 8, 10)),
		call("DC Booked", "6", at(2025, 9, 30, 10)),
	}}

	t.Run("default config counts voicemail as connected", func(t *testing.T) {
		got := New(data, DefaultConfig(), fixedNow).WeeklyTrends()

		assert.Equal(t, []string{"2025-W3", "2025-W2", "2025-W1", "2025-W5"}, got.Weeks)
		assert.Equal(t, []int{1, 2, 2, 1}, got.TotalCalls)
		assert.Equal(t, []int{1, 1, 1, 1}, got.ConnectedCalls)
		assert.Equal(t, []int{0, 0, 0, 0}, got.VoicemailCalls)
		assert.Equal(t, []int{0, 1, 1, 0}, got.NoAnswerCalls)
	})

	t.Run("voicemail bucket when not a connect", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConnectDispositions = []string{"Connected", "DC Booked"}
		got := New(data, cfg, fixedNow).WeeklyTrends()

		assert.Equal(t, []int{0, 1, 1, 0}, got.VoicemailCalls)
		assert.Equal(t, []int{1, 0, 0, 1}, got.ConnectedCalls)
	})

	t.Run("labels use the clock timezone", func(t *testing.T) {
		// 2025-10-07 23:30 UTC is 10/08 in Manila.
		ts := time.Date(2025, 10, 7, 23, 30, 0, 0, time.UTC)
		d := datanorm.Dataset{Calls: []datanorm.CallRecord{call("Connected", "1", &ts)}}

		assert.Equal(t, []string{"2025-W2"}, New(d, DefaultConfig(), fixedNow).WeeklyTrends().Weeks)
	})
}

func TestAttemptDistribution(t *testing.T) {
	data := datanorm.Dataset{Contacts: []datanorm.ContactRecord{
		contact("NAICS Q4", 3), contact("NAICS Q4", 1), contact("naics west", 3),
		contact("Other", 7), contact("Other", 0),
	}}
	calc := New(data, DefaultConfig(), fixedNow)

	all := calc.AttemptDistribution("")
	assert.Equal(t, []int{0, 1, 3, 7}, all.AttemptCounts)
	assert.Equal(t, []int{1, 1, 2, 1}, all.ContactCounts)

	naics := calc.AttemptDistribution("Naics")
	assert.Equal(t, []int{1, 3}, naics.AttemptCounts)
	assert.Equal(t, []int{1, 2}, naics.ContactCounts)

	none := calc.AttemptDistribution("missing")
	assert.Empty(t, none.AttemptCounts)
	assert.Empty(t, none.ContactCounts)
}

func TestCooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 10
	data := datanorm.Dataset{Contacts: []datanorm.ContactRecord{
		contact("A", 10), contact("A", 9), contact("A", 30),
	}}

	got := New(data, cfg, fixedNow).Cooldown()
	require.Equal(t, 2, got.CooldownContacts)
	assert.Equal(t, 7, got.CooldownDays)
	assert.Equal(t, "2025-10-22", got.ReattemptDate)
	assert.Equal(t, 10, got.MaxAttempts)
}

func TestConfigWithDefaults(t *testing.T) {
	got := Config{MaxAttempts: 12, PilotListName: "HVAC"}.WithDefaults()

	assert.Equal(t, 12, got.MaxAttempts)
	assert.Equal(t, "HVAC", got.PilotListName)
	assert.Equal(t, 2, got.DialAtATime)
	assert.Equal(t, 7, got.CooldownDays)
	assert.Len(t, got.ConnectDispositions, 5)
	assert.True(t, got.IsConnect("Left Live Message"))
	assert.False(t, got.IsConnect("left live message"))
}
