package constants

import "strings"

// Frequency is descriptive metadata on a bill; nothing schedules future instances from it.
type Frequency string

const (
	OneTime Frequency = "one-time"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"

	DefaultFrequency = Monthly
)

var allFrequencies = []Frequency{OneTime, Weekly, Monthly, Yearly}

func FrequenciesAsStringSlice() []string {
	out := make([]string, len(allFrequencies))
	for i, f := range allFrequencies {
		out[i] = string(f)
	}
	return out
}

// ParseFrequency accepts the canonical values plus a few spellings seen in model output.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-time", "once", "one time", "onetime", "one-off":
		return OneTime, true
	case "weekly":
		return Weekly, true
	case "monthly":
		return Monthly, true
	case "yearly", "annual", "annually":
		return Yearly, true
	}
	return "", false
}
