package steps

// Envelope is the discriminated result of an executor's external call:
// exactly one of data, a needs-map (missing inputs the caller must supply),
// or an error. It never carries both data and an error.
type Envelope[T any] struct {
	OK    bool
	Data  T
	Needs map[string]bool
	Error *EnvelopeError
}

type EnvelopeError struct {
	Code    string
	Message string
}

func Ok[T any](data T) Envelope[T] {
	return Envelope[T]{OK: true, Data: data}
}

func NeedsInput[T any](needs map[string]bool) Envelope[T] {
	return Envelope[T]{Needs: needs}
}

func Fail[T any](code, message string) Envelope[T] {
	return Envelope[T]{Error: &EnvelopeError{Code: code, Message: message}}
}
