package types

type SuccessEnvelope struct {
	Data any `json:"data"`
	// Warning is populated when the primary mutation committed but a
	// secondary audit write did not (partial failure).
	Warning *APIError `json:"warning,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
