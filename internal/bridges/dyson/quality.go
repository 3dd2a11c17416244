package dyson

// Quality scales map raw sensor readings onto the severity levels shown in
// the vendor app (1 Good, 2 Medium, 3 Bad, 4 Very Bad, 5 Extremely Bad).
// The breakpoints are fixed protocol constants; changing them breaks
// compatibility with recorded device traces.

// vocScaleFactor converts the raw va10/vact reading to index units before
// threshold comparison.
const vocScaleFactor = 0.125

// PM25Quality maps a PM2.5 density reading to a 1..5 severity level.
func PM25Quality(pm25 int) int {
	switch {
	case pm25 <= 35:
		return 1
	case pm25 <= 53:
		return 2
	case pm25 <= 70:
		return 3
	case pm25 <= 150:
		return 4
	default:
		return 5
	}
}

// PM10Quality maps a PM10 density reading to a 1..5 severity level.
func PM10Quality(pm10 int) int {
	switch {
	case pm10 <= 50:
		return 1
	case pm10 <= 75:
		return 2
	case pm10 <= 100:
		return 3
	case pm10 <= 350:
		return 4
	default:
		return 5
	}
}

// VOCQuality maps a raw va10 reading to a 1..4 severity level.
// The raw value is scaled by 0.125 before comparison.
func VOCQuality(va10 int) int {
	scaled := float64(va10) * vocScaleFactor
	switch {
	case scaled <= 3:
		return 1
	case scaled <= 6:
		return 2
	case scaled <= 8:
		return 3
	default:
		return 4
	}
}

// NO2Quality maps a nitrogen dioxide reading to a 1..5 severity level.
// Hardware generations without the sensor contribute 0 (no influence on the
// overall score).
func NO2Quality(noxl int) int {
	switch {
	case noxl <= 30:
		return 1
	case noxl <= 60:
		return 2
	case noxl <= 80:
		return 3
	case noxl <= 90:
		return 4
	default:
		return 5
	}
}

// HCHOQuality maps a formaldehyde reading to a 1..4 severity level.
func HCHOQuality(hchr int) int {
	switch {
	case hchr <= 99:
		return 1
	case hchr <= 299:
		return 2
	case hchr <= 499:
		return 3
	default:
		return 4
	}
}

// BasicParticulateQuality maps the single pact reading of models without the
// discrete sensor suite to a 1..5 severity level.
func BasicParticulateQuality(pact int) int {
	switch {
	case pact <= 2:
		return 1
	case pact <= 4:
		return 2
	case pact <= 7:
		return 3
	case pact <= 9:
		return 4
	default:
		return 5
	}
}

// BasicVOCQuality maps the single vact reading of models without the
// discrete sensor suite to a 1..4 severity level. Same scale as VOCQuality.
func BasicVOCQuality(vact int) int {
	return VOCQuality(vact)
}

// OverallQuality returns the worst of the given sub-scores. Zero entries
// (absent sensors) never win.
func OverallQuality(scores ...int) int {
	overall := 0
	for _, s := range scores {
		if s > overall {
			overall = s
		}
	}
	return overall
}
