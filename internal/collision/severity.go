package collision

// Severity is the derived risk category of a crash.
type Severity int

const (
	PropertyDamageOnly Severity = iota
	Minor
	Severe
	Fatal
)

// Severities lists every category from most to least severe.
var Severities = []Severity{Fatal, Severe, Minor, PropertyDamageOnly}

func (s Severity) String() string {
	switch s {
	case Fatal:
		return "Fatal"
	case Severe:
		return "Severe"
	case Minor:
		return "Minor"
	case PropertyDamageOnly:
		return "Property Damage Only"
	default:
		return "Unknown"
	}
}

// Classify applies the first matching rule: any fatality is Fatal, more than
// two injuries is Severe, any injury is Minor, otherwise Property Damage Only.
func Classify(injured, killed int) Severity {
	switch {
	case killed > 0:
		return Fatal
	case injured > 2:
		return Severe
	case injured > 0:
		return Minor
	default:
		return PropertyDamageOnly
	}
}

// Color returns the marker color for a severity. Anything without an explicit
// mapping, Property Damage Only included, is green.
func Color(s Severity) string {
	switch s {
	case Fatal:
		return "red"
	case Severe:
		return "orange"
	case Minor:
		return "blue"
	default:
		return "green"
	}
}
