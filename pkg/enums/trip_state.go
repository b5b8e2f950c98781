package enums

// TripResolution describes which branch of trip resolution produced the trip
// used for a check-off.
type TripResolution string

const (
	TripResolutionExisting TripResolution = "existing"
	TripResolutionReopened TripResolution = "reopened"
	TripResolutionCreated  TripResolution = "created"
)

// String implements fmt.Stringer.
func (t TripResolution) String() string {
	return string(t)
}
