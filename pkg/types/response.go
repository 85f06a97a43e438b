package types

// Envelope is the uniform success shape: {status, token?, message?, data?}.
type Envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorEnvelope is the client-facing failure shape. Detail and Stack are
// populated only in development mode.
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  any    `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}
