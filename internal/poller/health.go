package poller

// HealthCode is the numeric value published on hx_health.
type HealthCode int

const (
	HealthUnknown  HealthCode = 0
	HealthOnline   HealthCode = 1
	HealthOffline  HealthCode = 2
	HealthENoSpace HealthCode = 3
	HealthReadOnly HealthCode = 4
)

// MapHealthState maps an Intersight HyperFlex health state onto its code.
// Unrecognized states map to HealthUnknown.
func MapHealthState(state string) HealthCode {
	switch state {
	case "ONLINE":
		return HealthOnline
	case "OFFLINE":
		return HealthOffline
	case "ENOSPACE":
		return HealthENoSpace
	case "READONLY":
		return HealthReadOnly
	case "UNKNOWN":
		return HealthUnknown
	default:
		return HealthUnknown
	}
}

// String returns the upstream state name for the code.
func (c HealthCode) String() string {
	switch c {
	case HealthOnline:
		return "ONLINE"
	case HealthOffline:
		return "OFFLINE"
	case HealthENoSpace:
		return "ENOSPACE"
	case HealthReadOnly:
		return "READONLY"
	default:
		return "UNKNOWN"
	}
}
