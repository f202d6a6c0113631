// Package cooldown identifies contacts that reached the attempt ceiling and
// forecasts how many are worth redialing once their cooldown ends.
package cooldown

import (
	"math"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/metrics"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

const (
	// TargetKPI is the expected recontact success rate, in percent.
	TargetKPI = 15

	defaultOwner  = "System"
	statusCooling = "In Cooldown"
	dateLayout    = "2006-01-02"
)

// Contact is one powerlist contact placed in cooldown.
type Contact struct {
	PhoneNumber   string `json:"phone_number"`
	ListName      string `json:"list_name"`
	AttemptCount  int    `json:"attempt_count"`
	CooldownStart string `json:"cooldown_start"`
	CooldownEnd   string `json:"cooldown_end"`
	Owner         string `json:"owner"`
	ReviewDate    string `json:"review_date"`
	Status        string `json:"status"`
}

// Manager evaluates cooldown for a set of contacts.
type Manager struct {
	contacts []datanorm.ContactRecord
	cfg      metrics.Config
	clock    clock.Clock
}

func New(contacts []datanorm.ContactRecord, cfg metrics.Config, clk clock.Clock) *Manager {
	return &Manager{contacts: contacts, cfg: cfg, clock: clk}
}

// Contacts returns every contact whose attempt count is at or above the
// configured maximum.
func (m *Manager) Contacts() []Contact {
	now := m.clock.Now()
	start := now.Format(dateLayout)
	end := now.AddDate(0, 0, m.cfg.CooldownDays).Format(dateLayout)

	out := []Contact{}
	for _, c := range m.contacts {
		if c.AttemptCount < m.cfg.MaxAttempts {
			continue
		}
		phone := c.PhoneNumber
		if phone == "" {
			phone = "Unknown"
		}
		out = append(out, Contact{
			PhoneNumber:   phone,
			ListName:      c.ListName,
			AttemptCount:  c.AttemptCount,
			CooldownStart: start,
			CooldownEnd:   end,
			Owner:         defaultOwner,
			ReviewDate:    end,
			Status:        statusCooling,
		})
	}
	return out
}

// Potential forecasts successful recontacts after cooldown.
type Potential struct {
	CooldownContactsCount int       `json:"cooldown_contacts_count"`
	ReattemptPotential    int       `json:"reattempt_potential"`
	TargetKPI             int       `json:"target_kpi"`
	CooldownDays          int       `json:"cooldown_days"`
	CooldownContacts      []Contact `json:"cooldown_contacts,omitempty"`
}

// ReattemptPotential is floor(n * TargetKPI%) over the cooldown contacts.
func (m *Manager) ReattemptPotential() Potential {
	contacts := m.Contacts()
	p := Potential{
		TargetKPI:    TargetKPI,
		CooldownDays: m.cfg.CooldownDays,
	}
	if len(contacts) == 0 {
		return p
	}
	p.CooldownContactsCount = len(contacts)
	p.ReattemptPotential = int(math.Floor(float64(len(contacts)) * TargetKPI / 100))
	p.CooldownContacts = contacts
	return p
}
