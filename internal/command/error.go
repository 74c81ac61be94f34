package command

// Error is an application error carrying an optional structured payload.
// Handlers return it when a failure should be assertable beyond its message.
type Error struct {
	Message string
	Payload any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Value returns the structured payload.
func (e *Error) Value() any {
	return e.Payload
}

// PayloadCarrier is implemented by errors that expose a structured payload.
type PayloadCarrier interface {
	error
	Value() any
}

// NewError creates an application error with a message only.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// NewPayloadError creates an application error with a payload.
func NewPayloadError(message string, payload any) *Error {
	return &Error{Message: message, Payload: payload}
}
