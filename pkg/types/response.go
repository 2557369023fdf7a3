package types

// SuccessEnvelope wraps every 2xx response body under a top-level data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details is only populated for
// codes that allow exposing structured context.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope carries an APIError on non-2xx responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
