package report

type Color string

const (
	Lime      Color = "lime"
	Orange    Color = "orange"
	OrangeRed Color = "OrangeRed"
	Red       Color = "red"
)

// Thresholds are percentage changes below which results turn darker.
type Thresholds struct {
	Warning  float64
	Critical float64
}

var DefaultThresholds = Thresholds{Warning: -12, Critical: -20}

// PercentChange is the change from start to current in percent of start.
// A zero start yields 0.
func PercentChange(current, start float64) float64 {
	if start == 0 {
		return 0
	}
	return (current - start) / start * 100
}

// Color picks the display colour for a percentage change.
func (t Thresholds) Color(pct float64) Color {
	switch {
	case pct >= 0:
		return Lime
	case pct >= t.Warning:
		return Orange
	case pct >= t.Critical:
		return OrangeRed
	default:
		return Red
	}
}
