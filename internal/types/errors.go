package types

import "errors"

// ErrorKind is the stage prefix carried on every error that reaches an
// ingestion envelope, e.g. "parse/unsupported extension".
type ErrorKind string

const (
	KindParse     ErrorKind = "parse"
	KindExtract   ErrorKind = "extract"
	KindSchema    ErrorKind = "schema"
	KindInsert    ErrorKind = "insert"
	KindStore     ErrorKind = "store"
	KindVector    ErrorKind = "vector"
	KindIO        ErrorKind = "io"
	KindCancelled ErrorKind = "cancelled"
)

type TaggedError struct {
	Kind ErrorKind
	Err  error
}

func (e *TaggedError) Error() string {
	if e == nil || e.Err == nil {
		return string(e.Kind) + "/"
	}
	return string(e.Kind) + "/" + e.Err.Error()
}

func (e *TaggedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Tag wraps err with an error kind. Already-tagged errors keep their
// original kind so the first failing stage wins.
func Tag(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var te *TaggedError
	if errors.As(err, &te) {
		return err
	}
	return &TaggedError{Kind: kind, Err: err}
}

// KindOf returns the kind of a tagged error, or "" for untagged errors.
func KindOf(err error) ErrorKind {
	var te *TaggedError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
