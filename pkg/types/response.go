package types

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// StatusEnvelope is returned by endpoints whose only result is success.
type StatusEnvelope struct {
	Success bool `json:"success"`
}
