package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/connect-metrics/internal/datanorm"
)

var manila = time.FixedZone("PHT", 8*60*60)

// Wednesday 2025-10-15 09:00 in Manila, 01:00 UTC.
var now = time.Date(2025, 10, 15, 9, 0, 0, 0, manila)

type row struct {
	id   string
	date string
}

func ids(rows []row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

func TestApply(t *testing.T) {
	rows := []row{
		{"today", "10/15/2025"},
		{"today-short", "10/15/25"},
		{"yesterday", "10/14/2025"},
		{"sunday", "10/12/2025"},
		{"saturday", "10/11/2025"},
		{"month-start", "10/1/2025"},
		{"last-month", "9/30/2025"},
		{"tomorrow", "10/16/2025"},
		{"garbage", "soon"},
		{"empty", ""},
	}
	dateOf := func(r row) string { return r.date }

	tests := []struct {
		filter Filter
		want   []string
	}{
		{Today, []string{"today", "today-short"}},
		{Week, []string{"today", "today-short", "yesterday", "sunday"}},
		{Month, []string{"today", "today-short", "yesterday", "sunday", "saturday", "month-start"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(rows, tt.filter, now, dateOf)))
		})
	}

	t.Run("all", func(t *testing.T) {
		assert.Len(t, Apply(rows, All, now, dateOf), len(rows))
	})
}

func TestApply_UsesCallerTimezone(t *testing.T) {
	// 2025-10-14 20:00 UTC is already 10/15 in Manila.
	utcNow := time.Date(2025, 10, 14, 20, 0, 0, 0, time.UTC)
	rows := []row{{"a", "10/15/2025"}, {"b", "10/14/2025"}}
	dateOf := func(r row) string { return r.date }

	assert.Equal(t, []string{"a"}, ids(Apply(rows, Today, utcNow.In(manila), dateOf)))
	assert.Equal(t, []string{"b"}, ids(Apply(rows, Today, utcNow, dateOf)))
}

func TestWindow(t *testing.T) {
	start, end, ok := Window(Week, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 10, 12, 0, 0, 0, 0, manila), start)
	assert.Equal(t, time.Date(2025, 10, 16, 0, 0, 0, 0, manila), end)

	_, _, ok = Window(All, now)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Filter{"": All, "ALL": All, "today": Today, " week ": Week, "Month": Month} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Parse("quarter")
	assert.Error(t, err)
}

func TestCallsAndContacts(t *testing.T) {
	calls := []datanorm.CallRecord{{Date: "10/15/2025", Disposition: "Connected"}, {Date: "9/1/2025"}}
	contacts := []datanorm.ContactRecord{{DateAdded: ""}, {DateAdded: "10/2/2025", ListName: "NAICS"}}

	gotCalls := Calls(calls, Month, now)
	require.Len(t, gotCalls, 1)
	assert.Equal(t, "Connected", gotCalls[0].Disposition)

	gotContacts := Contacts(contacts, Month, now)
	require.Len(t, gotContacts, 1)
	assert.Equal(t, "NAICS", gotContacts[0].ListName)
}
