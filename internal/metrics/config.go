package metrics

// Config holds the business thresholds used by every calculation. Values
// are fixed for the lifetime of a Calculator.
type Config struct {
	ConnectDispositions       []string `yaml:"connect_dispositions" json:"connect_dispositions"`
	DialAtATime               int      `yaml:"dial_at_a_time" json:"dial_at_a_time"`
	MaxAttempts               int      `yaml:"max_attempts" json:"max_attempts"`
	PilotListName             string   `yaml:"pilot_list_name" json:"pilot_list_name"`
	TargetConnectUpliftPct    float64  `yaml:"target_connect_uplift_pct" json:"target_connect_uplift_pct"`
	SuccessConnectUpliftPct   float64  `yaml:"success_connect_uplift_pct" json:"success_connect_uplift_pct"`
	SuccessVoicemailUpliftPct float64  `yaml:"success_voicemail_uplift_pct" json:"success_voicemail_uplift_pct"`
	CooldownDays              int      `yaml:"cooldown_days" json:"cooldown_days"`
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ConnectDispositions: []string{
			"Connected",
			"Left voicemail",
			"DC Booked",
			"Qualified for Follow up",
			"Left Live Message",
		},
		DialAtATime:               2,
		MaxAttempts:               20,
		PilotListName:             "NAICS",
		TargetConnectUpliftPct:    30,
		SuccessConnectUpliftPct:   25,
		SuccessVoicemailUpliftPct: 15,
		CooldownDays:              7,
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if len(c.ConnectDispositions) == 0 {
		c.ConnectDispositions = d.ConnectDispositions
	}
	if c.DialAtATime <= 0 {
		c.DialAtATime = d.DialAtATime
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.PilotListName == "" {
		c.PilotListName = d.PilotListName
	}
	if c.TargetConnectUpliftPct == 0 {
		c.TargetConnectUpliftPct = d.TargetConnectUpliftPct
	}
	if c.SuccessConnectUpliftPct == 0 {
		c.SuccessConnectUpliftPct = d.SuccessConnectUpliftPct
	}
	if c.SuccessVoicemailUpliftPct == 0 {
		c.SuccessVoicemailUpliftPct = d.SuccessVoicemailUpliftPct
	}
	if c.CooldownDays <= 0 {
		c.CooldownDays = d.CooldownDays
	}
	return c
}

// IsConnect reports whether disposition counts as a successful outcome.
func (c Config) IsConnect(disposition string) bool {
	for _, d := range c.ConnectDispositions {
		if d == disposition {
			return true
		}
	}
	return false
}
