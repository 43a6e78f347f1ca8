// Package status maps soil moisture to a display band.
package status

// Band is the display classification of a moisture percentage.
type Band string

const (
	BandGood     Band = "GOOD"
	BandModerate Band = "MODERATE"
	BandLow      Band = "LOW"
)

// Band boundaries, in percent.
const (
	LowThreshold  = 30
	HighThreshold = 60
)

// Classify returns GOOD above 60%, MODERATE above 30% and LOW otherwise.
func Classify(percent int) Band {
	switch {
	case percent > HighThreshold:
		return BandGood
	case percent > LowThreshold:
		return BandModerate
	default:
		return BandLow
	}
}

// CSSClass is the stylesheet class the dashboard uses for the band.
func (b Band) CSSClass() string {
	switch b {
	case BandGood:
		return "moisture-good"
	case BandModerate:
		return "moisture-warning"
	default:
		return "moisture-danger"
	}
}

func (b Band) String() string {
	return string(b)
}
