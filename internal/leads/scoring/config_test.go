package scoring

import (
	"encoding/json"
	"testing"
)

func TestDefaultConfigurationLiterals(t *testing.T) {
	cfg := DefaultConfiguration()

	wantSources := map[string]float64{
		"referral":  20,
		"website":   15,
		"facebook":  12,
		"instagram": 12,
		"google":    10,
		"cold_call": 5,
		"manual":    8,
	}
	if len(cfg.SourceWeights) != len(wantSources) {
		t.Fatalf("SourceWeights has %d entries, want %d", len(cfg.SourceWeights), len(wantSources))
	}
	for k, v := range wantSources {
		if cfg.SourceWeights[k] != v {
			t.Errorf("SourceWeights[%q] = %v, want %v", k, cfg.SourceWeights[k], v)
		}
	}

	wantActivities := map[string]float64{
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
	}
	if len(cfg.ActivityWeights) != len(wantActivities) {
		t.Fatalf("ActivityWeights has %d entries, want %d", len(cfg.ActivityWeights), len(wantActivities))
	}
	for k, v := range wantActivities {
		if cfg.ActivityWeights[k] != v {
			t.Errorf("ActivityWeights[%q] = %v, want %v", k, cfg.ActivityWeights[k], v)
		}
	}

	if cfg.TimeDecaySettings.MaxAge != 90 || cfg.TimeDecaySettings.DecayRate != 0.1 {
		t.Errorf("TimeDecaySettings = %+v, want {MaxAge:90 DecayRate:0.1}", cfg.TimeDecaySettings)
	}
	if cfg.AutomationTriggers.HotThreshold != 80 ||
		cfg.AutomationTriggers.WarmThreshold != 60 ||
		cfg.AutomationTriggers.ColdThreshold != 40 {
		t.Errorf("AutomationTriggers = %+v, want {80 60 40}", cfg.AutomationTriggers)
	}
}

func TestWeightFallbacks(t *testing.T) {
	cfg := DefaultConfiguration()

	if got := cfg.SourceWeight("carrier_pigeon"); got != 8 {
		t.Errorf("SourceWeight for unknown source = %v, want 8", got)
	}
	if got := cfg.ActivityWeight("left_handed_wave"); got != 1 {
		t.Errorf("ActivityWeight for unknown type = %v, want 1", got)
	}
	if got := cfg.ActivityWeight("call_missed"); got != -1 {
		t.Errorf("ActivityWeight(call_missed) = %v, want -1", got)
	}
}

func TestApplyReplacesWeightMapsWholesale(t *testing.T) {
	cfg := DefaultConfiguration()

	merged := cfg.Apply(ConfigurationPatch{
		SourceWeights: map[string]float64{"referral": 25},
	})

	if merged.SourceWeights["referral"] != 25 {
		t.Errorf("referral weight = %v, want 25", merged.SourceWeights["referral"])
	}
	if _, ok := merged.SourceWeights["website"]; ok {
		t.Error("website survived a wholesale map replacement")
	}
	// untouched sections keep their values
	if merged.ActivityWeights["booking_attempt"] != 10 {
		t.Errorf("booking_attempt = %v, want untouched 10", merged.ActivityWeights["booking_attempt"])
	}
	if merged.AutomationTriggers.HotThreshold != 80 {
		t.Errorf("HotThreshold = %d, want untouched 80", merged.AutomationTriggers.HotThreshold)
	}
}

func TestApplyPatchesScalarsIndividually(t *testing.T) {
	cfg := DefaultConfiguration()

	hot := 85
	rate := 0.2
	merged := cfg.Apply(ConfigurationPatch{
		AutomationTriggers: &TemperatureThresholdsPatch{HotThreshold: &hot},
		TimeDecaySettings:  &TimeDecayPatch{DecayRate: &rate},
	})

	if merged.AutomationTriggers.HotThreshold != 85 {
		t.Errorf("HotThreshold = %d, want 85", merged.AutomationTriggers.HotThreshold)
	}
	if merged.AutomationTriggers.WarmThreshold != 60 {
		t.Errorf("WarmThreshold = %d, want untouched 60", merged.AutomationTriggers.WarmThreshold)
	}
	if merged.TimeDecaySettings.DecayRate != 0.2 {
		t.Errorf("DecayRate = %v, want 0.2", merged.TimeDecaySettings.DecayRate)
	}
	if merged.TimeDecaySettings.MaxAge != 90 {
		t.Errorf("MaxAge = %d, want untouched 90", merged.TimeDecaySettings.MaxAge)
	}
}

func TestConfigurationJSONShape(t *testing.T) {
	raw, err := json.Marshal(DefaultConfiguration())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"sourceWeights", "activityWeights", "timeDecaySettings", "automationTriggers"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized configuration missing %q", key)
		}
	}
}
