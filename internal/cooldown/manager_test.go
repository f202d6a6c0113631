package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/metrics"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

var now = clock.Fixed{T: time.Date(2025, 10, 15, 23, 30, 0, 0, time.FixedZone("PHT", 8*60*60))}

func cfgWithMax(n int) metrics.Config {
	cfg := metrics.DefaultConfig()
	cfg.MaxAttempts = n
	return cfg
}

func TestContacts_InclusiveBoundary(t *testing.T) {
	contacts := []datanorm.ContactRecord{
		{PhoneNumber: "555-000-0010", ListName: "NAICS", AttemptCount: 10},
		{PhoneNumber: "555-000-0009", ListName: "NAICS", AttemptCount: 9},
		{PhoneNumber: "", ListName: "Default List", AttemptCount: 14},
	}

	got := New(contacts, cfgWithMax(10), now).Contacts()

	require.Len(t, got, 2)
	assert.Equal(t, Contact{
		PhoneNumber:   "555-000-0010",
		ListName:      "NAICS",
		AttemptCount:  10,
		CooldownStart: "2025-10-15",
		CooldownEnd:   "2025-10-22",
		Owner:         "System",
		ReviewDate:    "2025-10-22",
		Status:        "In Cooldown",
	}, got[0])
	assert.Equal(t, "Unknown", got[1].PhoneNumber)
}

func TestReattemptPotential(t *testing.T) {
	tests := []struct {
		name      string
		qualified int
		want      int
	}{
		{"none", 0, 0},
		{"below one", 6, 0},
		{"seven", 7, 1},
		{"twenty", 20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := make([]datanorm.ContactRecord, 0, tt.qualified+1)
			for i := 0; i < tt.qualified; i++ {
				contacts = append(contacts, datanorm.ContactRecord{AttemptCount: 20})
			}
			contacts = append(contacts, datanorm.ContactRecord{AttemptCount: 1})

			got := New(contacts, metrics.DefaultConfig(), now).ReattemptPotential()
			assert.Equal(t, tt.qualified, got.CooldownContactsCount)
			assert.Equal(t, tt.want, got.ReattemptPotential)
			assert.Equal(t, 15, got.TargetKPI)
			assert.Equal(t, 7, got.CooldownDays)
			assert.Len(t, got.CooldownContacts, tt.qualified)
		})
	}
}
