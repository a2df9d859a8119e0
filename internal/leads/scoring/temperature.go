package scoring

import "gymflow_backend/platform/apperr"

// Temperature is the human-readable banding of a score used for prioritization.
type Temperature string

const (
	TemperatureHot      Temperature = "hot"
	TemperatureWarm     Temperature = "warm"
	TemperatureLukewarm Temperature = "lukewarm"
	TemperatureCold     Temperature = "cold"
)

// Band cutoffs: hot [80,100], warm [60,79], lukewarm [40,59], cold [0,39].
const (
	hotFloor      = 80
	warmFloor     = 60
	lukewarmFloor = 40
)

// TemperatureFor bands a score.
func TemperatureFor(score int) Temperature {
	switch {
	case score >= hotFloor:
		return TemperatureHot
	case score >= warmFloor:
		return TemperatureWarm
	case score >= lukewarmFloor:
		return TemperatureLukewarm
	default:
		return TemperatureCold
	}
}

// ParseTemperature validates a temperature name from transport input.
func ParseTemperature(raw string) (Temperature, error) {
	switch Temperature(raw) {
	case TemperatureHot, TemperatureWarm, TemperatureLukewarm, TemperatureCold:
		return Temperature(raw), nil
	default:
		return "", apperr.BadRequest("unknown temperature: " + raw)
	}
}

// Range returns the inclusive score bounds of a temperature band.
func (t Temperature) Range() (min int, max int) {
	switch t {
	case TemperatureHot:
		return hotFloor, 100
	case TemperatureWarm:
		return warmFloor, hotFloor - 1
	case TemperatureLukewarm:
		return lukewarmFloor, warmFloor - 1
	default:
		return 0, lukewarmFloor - 1
	}
}
