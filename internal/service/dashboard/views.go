package dashboard

import (
	"github.com/ignite/connect-metrics/internal/cooldown"
	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/linker"
	"github.com/ignite/connect-metrics/internal/metrics"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

// View names a cached metrics payload.
type View string

const (
	ViewDashboard  View = "dashboard"
	ViewTrends     View = "trends"
	ViewValidation View = "validation"
	ViewAttempts   View = "attempts"
	ViewCooldown   View = "cooldown"
)

var Views = []View{ViewDashboard, ViewTrends, ViewValidation, ViewAttempts, ViewCooldown}

func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", ErrUnknownView
}

// DashboardMetrics is the overview payload.
type DashboardMetrics struct {
	Baseline metrics.Baseline      `json:"baseline"`
	Pilot    metrics.Pilot         `json:"pilot"`
	Hygiene  linker.HygieneMetrics `json:"hygiene"`
	Cooldown cooldown.Potential    `json:"cooldown"`
}

type TrendsMetrics struct {
	Trends metrics.WeeklyTrends `json:"trends"`
}

type ValidationMetrics struct {
	CrossReference linker.CrossReference `json:"cross_reference"`
	Hygiene        linker.HygieneMetrics `json:"hygiene"`
}

type AttemptsMetrics struct {
	ListName     string                      `json:"list_name,omitempty"`
	Distribution metrics.AttemptDistribution `json:"distribution"`
}

type CooldownMetrics struct {
	Summary   metrics.Cooldown   `json:"summary"`
	Potential cooldown.Potential `json:"potential"`
}

// Params are the request inputs that shape a view.
type Params struct {
	ListName string
}

func compute(view View, data datanorm.Dataset, cfg metrics.Config, clk clock.Clock, p Params) any {
	calc := metrics.New(data, cfg, clk)
	switch view {
	case ViewTrends:
		return TrendsMetrics{Trends: calc.WeeklyTrends()}
	case ViewValidation:
		m := linker.New(data)
		return ValidationMetrics{CrossReference: m.CrossReference(), Hygiene: m.Hygiene()}
	case ViewAttempts:
		return AttemptsMetrics{ListName: p.ListName, Distribution: calc.AttemptDistribution(p.ListName)}
	case ViewCooldown:
		return CooldownMetrics{
			Summary:   calc.Cooldown(),
			Potential: cooldown.New(data.Contacts, cfg, clk).ReattemptPotential(),
		}
	default:
		potential := cooldown.New(data.Contacts, cfg, clk).ReattemptPotential()
		potential.CooldownContacts = nil
		return DashboardMetrics{
			Baseline: calc.Baseline(),
			Pilot:    calc.Pilot(metrics.PilotOptions{}),
			Hygiene:  linker.New(data).Hygiene(),
			Cooldown: potential,
		}
	}
}
