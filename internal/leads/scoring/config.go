package scoring

// Configuration holds an organization's scoring weight tables. Weight maps are
// open string-keyed so new lead sources and activity types can be introduced
// without a schema migration; lookups fall back to documented defaults.
type Configuration struct {
	SourceWeights      map[string]float64    `json:"sourceWeights"`
	ActivityWeights    map[string]float64    `json:"activityWeights"`
	TimeDecaySettings  TimeDecaySettings     `json:"timeDecaySettings"`
	AutomationTriggers TemperatureThresholds `json:"automationTriggers"`
}

// TimeDecaySettings controls how lead urgency fades with age.
type TimeDecaySettings struct {
	MaxAge    int     `json:"maxAge"`
	DecayRate float64 `json:"decayRate"`
}

// TemperatureThresholds holds the score cutoffs downstream automation rules
// key on when reacting to score changes.
type TemperatureThresholds struct {
	HotThreshold  int `json:"hotThreshold"`
	WarmThreshold int `json:"warmThreshold"`
	ColdThreshold int `json:"coldThreshold"`
}

// ConfigurationPatch is a partial configuration update. Weight maps replace
// the stored map wholesale when supplied; threshold and decay fields override
// individually.
type ConfigurationPatch struct {
	SourceWeights      map[string]float64       `json:"sourceWeights,omitempty"`
	ActivityWeights    map[string]float64       `json:"activityWeights,omitempty"`
	TimeDecaySettings  *TimeDecayPatch          `json:"timeDecaySettings,omitempty"`
	AutomationTriggers *TemperatureThresholdsPatch `json:"automationTriggers,omitempty"`
}

// TimeDecayPatch overrides individual time decay fields.
type TimeDecayPatch struct {
	MaxAge    *int     `json:"maxAge,omitempty"`
	DecayRate *float64 `json:"decayRate,omitempty"`
}

// TemperatureThresholdsPatch overrides individual temperature thresholds.
type TemperatureThresholdsPatch struct {
	HotThreshold  *int `json:"hotThreshold,omitempty"`
	WarmThreshold *int `json:"warmThreshold,omitempty"`
	ColdThreshold *int `json:"coldThreshold,omitempty"`
}

// fallbackSourceWeight is used for sources absent from the weight table.
const fallbackSourceWeight = 8

// fallbackActivityWeight is used for activity types absent from the weight table.
const fallbackActivityWeight = 1

// DefaultConfiguration returns the organization-scoped default weight tables.
// These literals are a compatibility contract; changing them silently re-scores
// every tenant that never customized its configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		SourceWeights: map[string]float64{
			"referral":  20,
			"website":   15,
			"facebook":  12,
			"instagram": 12,
			"google":    10,
			"cold_call": 5,
			"manual":    8,
		},
		ActivityWeights: map[string]float64{
			"email_open":        1,
			"email_click":       2,
			"form_submission":   5,
			"website_visit":     2,
			"page_view":         1,
			"download":          3,
			"video_watch":       4,
			"call_answer":       8,
			"call_missed":       -1,
			"sms_reply":         6,
			"whatsapp_reply":    6,
			"booking_attempt":   10,
			"social_engagement": 2,
		},
		TimeDecaySettings: TimeDecaySettings{
			MaxAge:    90,
			DecayRate: 0.1,
		},
		AutomationTriggers: TemperatureThresholds{
			HotThreshold:  80,
			WarmThreshold: 60,
			ColdThreshold: 40,
		},
	}
}

// SourceWeight resolves the weight for a lead source.
func (c Configuration) SourceWeight(source string) float64 {
	if w, ok := c.SourceWeights[source]; ok {
		return w
	}
	return fallbackSourceWeight
}

// ActivityWeight resolves the default value for an activity type.
func (c Configuration) ActivityWeight(activityType string) float64 {
	if w, ok := c.ActivityWeights[activityType]; ok {
		return w
	}
	return fallbackActivityWeight
}

// Apply merges a patch onto the configuration and returns the result.
func (c Configuration) Apply(patch ConfigurationPatch) Configuration {
	merged := c

	if patch.SourceWeights != nil {
		merged.SourceWeights = patch.SourceWeights
	}
	if patch.ActivityWeights != nil {
		merged.ActivityWeights = patch.ActivityWeights
	}
	if patch.TimeDecaySettings != nil {
		if patch.TimeDecaySettings.MaxAge != nil {
			merged.TimeDecaySettings.MaxAge = *patch.TimeDecaySettings.MaxAge
		}
		if patch.TimeDecaySettings.DecayRate != nil {
			merged.TimeDecaySettings.DecayRate = *patch.TimeDecaySettings.DecayRate
		}
	}
	if patch.AutomationTriggers != nil {
		if patch.AutomationTriggers.HotThreshold != nil {
			merged.AutomationTriggers.HotThreshold = *patch.AutomationTriggers.HotThreshold
		}
		if patch.AutomationTriggers.WarmThreshold != nil {
			merged.AutomationTriggers.WarmThreshold = *patch.AutomationTriggers.WarmThreshold
		}
		if patch.AutomationTriggers.ColdThreshold != nil {
			merged.AutomationTriggers.ColdThreshold = *patch.AutomationTriggers.ColdThreshold
		}
	}

	return merged
}
