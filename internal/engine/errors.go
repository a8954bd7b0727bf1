package engine

// Error codes surfaced to callers. UI layers branch on these to choose
// remediation copy, so they are part of the wire contract.
const (
	// CodeMissingNumericFields: the request carried no recognizable numeric
	// deal field, so no geometry can ever be computed.
	CodeMissingNumericFields = "missing_numeric_fields"

	// CodeInvalidGateInput: a gate input violated a structural invariant
	// (fail without severity, or severity on a non-fail status).
	CodeInvalidGateInput = "invalid_gate_input"

	// CodeEngineError: unexpected failure during computation, caught at the
	// orchestration boundary. Never retried automatically.
	CodeEngineError = "engine_error"
)

// Error is a typed engine error with a stable code.
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, message string, details any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}
