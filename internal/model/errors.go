package model

// ValidationError reports input that was rejected before touching storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
