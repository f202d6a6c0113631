// Package metrics derives connect-rate, pilot sizing, weekly trend, attempt
// distribution and cooldown figures from canonical call-center records.
// Every method is a pure function of the dataset, the config and the clock.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

// VoicemailDisposition is tallied separately in weekly trends.
const VoicemailDisposition = "Left voicemail"

const (
	pilotFallbackSample = 100
	pilotTestDays       = 3
	daysPerWeek         = 7
)

// Calculator computes metrics over one Dataset.
type Calculator struct {
	data  datanorm.Dataset
	cfg   Config
	clock clock.Clock
	fold  cases.Caser
}

func New(data datanorm.Dataset, cfg Config, clk clock.Clock) *Calculator {
	return &Calculator{
		data:  data,
		cfg:   cfg,
		clock: clk,
		fold:  cases.Fold(),
	}
}

// Baseline is the current-state connect performance.
type Baseline struct {
	ConnectRate         float64 `json:"connect_rate"`
	AnswerEventPct      float64 `json:"answer_event_pct"`
	AvgAttemptsLostRace float64 `json:"avg_attempts_lost_race"`
	CooldownPerDay      float64 `json:"cooldown_per_day"`
	TotalCalls          int     `json:"total_calls"`
	ConnectedCalls      int     `json:"connected_calls"`
}

// Baseline returns the zero value when there are no calls.
func (c *Calculator) Baseline() Baseline {
	calls := c.data.Calls
	if len(calls) == 0 {
		return Baseline{}
	}

	total := len(calls)
	connected := 0
	lostRace := make(map[string]int)
	for _, r := range calls {
		if c.cfg.IsConnect(r.Disposition) {
			connected++
			continue
		}
		if r.PhoneNormalized != "" {
			lostRace[r.PhoneNormalized]++
		}
	}

	logged := float64(total)
	d := float64(c.cfg.DialAtATime)
	var answerEventPct float64
	if d > 0 {
		lost := logged * (d - 1) / d
		answerEventPct = logged / (logged + lost) * 100
	}

	var avgLost float64
	if len(lostRace) > 0 {
		sum := 0
		for _, n := range lostRace {
			sum += n
		}
		avgLost = float64(sum) / float64(len(lostRace))
	}

	return Baseline{
		ConnectRate:         round2(float64(connected) / logged * 100),
		AnswerEventPct:      round2(answerEventPct),
		AvgAttemptsLostRace: round2(avgLost),
		CooldownPerDay:      float64(c.countAtMax()) / daysPerWeek,
		TotalCalls:          total,
		ConnectedCalls:      connected,
	}
}

// PilotOptions overrides the configured dial settings for one pilot plan.
// Zero fields keep the configured value.
type PilotOptions struct {
	DialAtATime int
	MaxAttempts int
}

// Pilot is the sizing and success criteria of a pilot test.
type Pilot struct {
	SampleSize                int     `json:"sample_size"`
	PilotListMatched          bool    `json:"pilot_list_matched"`
	TargetConnectUpliftPct    float64 `json:"target_connect_uplift_pct"`
	TargetConnectRate         float64 `json:"target_connect_rate"`
	SuccessConnectUpliftPct   float64 `json:"success_connect_uplift_pct"`
	SuccessVoicemailUpliftPct float64 `json:"success_voicemail_uplift_pct"`
	TestDurationDays          int     `json:"test_duration_days"`
	DialAtATime               int     `json:"dial_at_a_time"`
	MaxAttempts               int     `json:"max_attempts"`
}

// Pilot selects contacts on the pilot list, or the first contacts when no
// list matches, and derives the target connect rate from the baseline.
func (c *Calculator) Pilot(opts PilotOptions) Pilot {
	contacts := c.data.Contacts
	if len(contacts) == 0 {
		return Pilot{}
	}

	sample := 0
	for _, r := range contacts {
		if c.containsFold(r.ListName, c.cfg.PilotListName) {
			sample++
		}
	}
	matched := sample > 0
	if !matched {
		sample = min(pilotFallbackSample, len(contacts))
	}

	dial := c.cfg.DialAtATime
	if opts.DialAtATime > 0 {
		dial = opts.DialAtATime
	}
	maxAttempts := c.cfg.MaxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}

	baseline := c.Baseline().ConnectRate
	return Pilot{
		SampleSize:                sample,
		PilotListMatched:          matched,
		TargetConnectUpliftPct:    c.cfg.TargetConnectUpliftPct,
		TargetConnectRate:         round2(baseline * (1 + c.cfg.TargetConnectUpliftPct/100)),
		SuccessConnectUpliftPct:   c.cfg.SuccessConnectUpliftPct,
		SuccessVoicemailUpliftPct: c.cfg.SuccessVoicemailUpliftPct,
		TestDurationDays:          pilotTestDays,
		DialAtATime:               dial,
		MaxAttempts:               maxAttempts,
	}
}

// WeeklyTrends holds parallel per-bucket series in first-seen bucket order.
type WeeklyTrends struct {
	Weeks          []string `json:"weeks"`
	TotalCalls     []int    `json:"total_calls"`
	ConnectedCalls []int    `json:"connected_calls"`
	VoicemailCalls []int    `json:"voicemail_calls"`
	NoAnswerCalls  []int    `json:"no_answer_calls"`
}

// WeeklyTrends buckets timestamped calls by "<year>-W<ceil(day/7)>", a
// month-relative week number. Calls without a timestamp are skipped. The
// connect set is checked before the voicemail disposition, so a voicemail
// configured as a connect counts as connected.
func (c *Calculator) WeeklyTrends() WeeklyTrends {
	out := WeeklyTrends{
		Weeks:          []string{},
		TotalCalls:     []int{},
		ConnectedCalls: []int{},
		VoicemailCalls: []int{},
		NoAnswerCalls:  []int{},
	}

	index := make(map[string]int)
	for _, r := range c.data.Calls {
		if r.Timestamp == nil {
			continue
		}
		label := weekLabel(r.Timestamp.In(c.clock.Location()))
		i, ok := index[label]
		if !ok {
			i = len(out.Weeks)
			index[label] = i
			out.Weeks = append(out.Weeks, label)
			out.TotalCalls = append(out.TotalCalls, 0)
			out.ConnectedCalls = append(out.ConnectedCalls, 0)
			out.VoicemailCalls = append(out.VoicemailCalls, 0)
			out.NoAnswerCalls = append(out.NoAnswerCalls, 0)
		}

		out.TotalCalls[i]++
		switch {
		case c.cfg.IsConnect(r.Disposition):
			out.ConnectedCalls[i]++
		case r.Disposition == VoicemailDisposition:
			out.VoicemailCalls[i]++
		default:
			out.NoAnswerCalls[i]++
		}
	}
	return out
}

func weekLabel(t time.Time) string {
	return fmt.Sprintf("%d-W%d", t.Year(), (t.Day()+6)/7)
}

// AttemptDistribution is a histogram of attempt counts, ascending.
type AttemptDistribution struct {
	AttemptCounts []int `json:"attempt_counts"`
	ContactCounts []int `json:"contact_counts"`
}

// AttemptDistribution counts contacts per attempt count, optionally only
// for contacts whose list name contains listName (case-insensitive).
func (c *Calculator) AttemptDistribution(listName string) AttemptDistribution {
	out := AttemptDistribution{AttemptCounts: []int{}, ContactCounts: []int{}}

	counts := make(map[int]int)
	for _, r := range c.data.Contacts {
		if listName != "" && !c.containsFold(r.ListName, listName) {
			continue
		}
		counts[r.AttemptCount]++
	}

	for k := range counts {
		out.AttemptCounts = append(out.AttemptCounts, k)
	}
	sort.Ints(out.AttemptCounts)
	for _, k := range out.AttemptCounts {
		out.ContactCounts = append(out.ContactCounts, counts[k])
	}
	return out
}

// Cooldown summarizes contacts that reached the attempt ceiling.
type Cooldown struct {
	CooldownContacts int    `json:"cooldown_contacts"`
	CooldownDays     int    `json:"cooldown_days"`
	ReattemptDate    string `json:"reattempt_date,omitempty"`
	MaxAttempts      int    `json:"max_attempts"`
}

// Cooldown returns the zero value when there are no contacts.
func (c *Calculator) Cooldown() Cooldown {
	if len(c.data.Contacts) == 0 {
		return Cooldown{}
	}
	return Cooldown{
		CooldownContacts: c.countAtMax(),
		CooldownDays:     c.cfg.CooldownDays,
		ReattemptDate:    c.clock.Now().AddDate(0, 0, c.cfg.CooldownDays).Format("2006-01-02"),
		MaxAttempts:      c.cfg.MaxAttempts,
	}
}

func (c *Calculator) countAtMax() int {
	n := 0
	for _, r := range c.data.Contacts {
		if r.AttemptCount >= c.cfg.MaxAttempts {
			n++
		}
	}
	return n
}

func (c *Calculator) containsFold(s, substr string) bool {
	return strings.Contains(c.fold.String(s), c.fold.String(substr))
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
