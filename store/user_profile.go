package store

// Units is the measurement system used when rendering weather values.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ResponseStyle controls the verbosity of the final answer.
type ResponseStyle string

const (
	StyleBrief    ResponseStyle = "brief"
	StyleBalanced ResponseStyle = "balanced"
	StyleDetailed ResponseStyle = "detailed"
)

// DefaultPersonaID is assumed when a profile row is absent or blank.
const DefaultPersonaID = "professional"

// UserProfile holds per-user preferences remembered across turns.
// One row per user, upserted on every remembered turn.
type UserProfile struct {
	UserID        string
	PersonaID     string
	PreferredCity string // empty when unknown
	Units         Units
	ResponseStyle ResponseStyle
	UpdatedTs     int64 // unix seconds, zero for a defaulted profile
}

// UpsertUserProfile specifies the fields to merge into a profile row.
// Nil fields keep the stored value.
type UpsertUserProfile struct {
	UserID        string
	PersonaID     *string
	PreferredCity *string
	Units         *Units
	ResponseStyle *ResponseStyle
}

// DefaultUserProfile returns the profile assumed for an unknown user.
func DefaultUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:        NormalizeUserID(userID),
		PersonaID:     DefaultPersonaID,
		Units:         UnitsMetric,
		ResponseStyle: StyleBalanced,
	}
}

// ValidUnits normalizes a units value, defaulting to metric.
func ValidUnits(value string) Units {
	switch Units(NormalizeText(value)) {
	case UnitsImperial:
		return UnitsImperial
	default:
		return UnitsMetric
	}
}

// ValidResponseStyle normalizes a style value, defaulting to balanced.
func ValidResponseStyle(value string) ResponseStyle {
	switch ResponseStyle(NormalizeText(value)) {
	case StyleBrief:
		return StyleBrief
	case StyleDetailed:
		return StyleDetailed
	default:
		return StyleBalanced
	}
}
