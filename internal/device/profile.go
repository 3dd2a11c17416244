package device

// Profile describes the feature set of one appliance model family.
//
// The product type code in the serial/credentials payload keys the lookup.
// Capability flags gate which controls and sensors the bridge exposes for a
// device; the session layer never sends a command for a capability the
// profile lacks.
type Profile struct {
	// ProductType is the firmware product code, e.g. "438" or "527K".
	ProductType string

	// Model is the retail model name.
	Model string

	// HardwareRevision lists the retail hardware codes covered by this
	// product type, slash-separated when several share one code.
	HardwareRevision string

	// HasAdvancedAirQualitySensors reports discrete PM2.5/PM10/VOC/NO2
	// sensing. Models without it report only the basic pact/vact pair.
	HasAdvancedAirQualitySensors bool

	// HasHeating reports a heating element (Hot+Cool models).
	HasHeating bool

	// HasHumidifier reports an evaporative humidifier (Humidify+Cool models).
	HasHumidifier bool

	// HasJetFocus reports switchable diffuse/focused airflow.
	HasJetFocus bool

	// HasOscillation reports a motorised oscillating head.
	HasOscillation bool
}

// knownProfiles maps product type codes to their profiles.
var knownProfiles = map[string]Profile{
	"358": {
		Model:                        "Dyson Pure Humidify+Cool",
		HardwareRevision:             "PH01",
		HasAdvancedAirQualitySensors: true,
		HasHumidifier:                true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"358E": {
		Model:                        "Dyson Pure Humidify+Cool Formaldehyde",
		HardwareRevision:             "PH03/PH04",
		HasAdvancedAirQualitySensors: true,
		HasHumidifier:                true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"358K": {
		Model:                        "Dyson Pure Humidify+Cool Formaldehyde",
		HardwareRevision:             "PH03/PH04",
		HasAdvancedAirQualitySensors: true,
		HasHumidifier:                true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"438": {
		Model:                        "Dyson Pure Cool (Tower)",
		HardwareRevision:             "TP04/TP11",
		HasAdvancedAirQualitySensors: true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"438E": {
		Model:                        "Dyson Pure Cool",
		HardwareRevision:             "TP07/TP09",
		HasAdvancedAirQualitySensors: true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"438K": {
		Model:                        "Dyson Pure Cool",
		HardwareRevision:             "TP07/TP09",
		HasAdvancedAirQualitySensors: true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"455": {
		Model:            "Dyson Pure Hot+Cool Link",
		HardwareRevision: "HP02",
		HasHeating:       true,
		HasJetFocus:      true,
		HasOscillation:   true,
	},
	"469": {
		Model:            "Dyson Pure Cool Link Desk",
		HardwareRevision: "DP01",
		HasOscillation:   true,
	},
	"475": {
		Model:            "Dyson Pure Cool Link Tower",
		HardwareRevision: "TP02",
		HasOscillation:   true,
	},
	"520": {
		Model:                        "Dyson Pure Cool Purifying Desk",
		HardwareRevision:             "DP04",
		HasAdvancedAirQualitySensors: true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"527": {
		Model:                        "Dyson Pure Hot+Cool",
		HardwareRevision:             "HP04",
		HasAdvancedAirQualitySensors: true,
		HasHeating:                   true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"527E": {
		Model:                        "Dyson Purifier Hot+Cool Formaldehyde",
		HardwareRevision:             "HP07/HP09",
		HasAdvancedAirQualitySensors: true,
		HasHeating:                   true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"527K": {
		Model:                        "Dyson Purifier Hot+Cool",
		HardwareRevision:             "HP07",
		HasAdvancedAirQualitySensors: true,
		HasHeating:                   true,
		HasJetFocus:                  true,
		HasOscillation:               true,
	},
	"664": {
		Model:                        "Dyson Purifier Big+Quiet Formaldehyde",
		HardwareRevision:             "BP02/BP03/BP04/BP06",
		HasAdvancedAirQualitySensors: true,
	},
}

// Lookup returns the profile for a product type code.
//
// Unknown codes return a conservative default profile so a new or unlisted
// model still works as a plain purifier fan. The lookup is total; it never
// fails.
//
// Parameters:
//   - productType: Product code from the device credentials, e.g. "438"
//
// Returns:
//   - Profile: Profile with ProductType set to the queried code
func Lookup(productType string) Profile {
	if p, ok := knownProfiles[productType]; ok {
		p.ProductType = productType
		return p
	}
	return Profile{
		ProductType: productType,
		Model:       "Pure Cool",
	}
}

// IsKnown reports whether the product type code has a dedicated profile.
func IsKnown(productType string) bool {
	_, ok := knownProfiles[productType]
	return ok
}
