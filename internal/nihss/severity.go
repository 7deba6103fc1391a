package nihss

// Tier is a display hint for a severity band.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierInverse Tier = "inverse"
)

// Severity is the interpretation of a total score.
type Severity struct {
	Label string `json:"label" yaml:"label"`
	Tier  Tier   `json:"tier" yaml:"tier"`
}

// ClassifySeverity maps a total score onto its severity band.
func ClassifySeverity(total int) Severity {
	switch {
	case total <= 0:
		return Severity{Label: "No Stroke Symptoms", Tier: TierNormal}
	case total <= 4:
		return Severity{Label: "Minor Stroke", Tier: TierNormal}
	case total <= 15:
		return Severity{Label: "Moderate Stroke", Tier: TierInverse}
	case total <= 20:
		return Severity{Label: "Moderate to Severe", Tier: TierInverse}
	default:
		return Severity{Label: "Severe Stroke", Tier: TierInverse}
	}
}
