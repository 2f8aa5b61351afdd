// Package fault classifies the failures the cart engine can surface:
// local validation, storage/network adapters, and corrupt persisted
// state. Callers branch on the kind instead of matching error strings.
package fault

import "errors"

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAdapter
	KindCorrupt
)

type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

func WithKind(kind Kind) Opt {
	return func(err error) error {
		return &kindError{error: err, kind: kind}
	}
}

func WithMessage(msg string) Opt {
	return func(err error) error {
		return &messageError{error: err, msg: msg}
	}
}

// WithField names the input field a validation failure refers to, so
// forms can render the message inline next to it.
func WithField(name string) Opt {
	return func(err error) error {
		return &fieldError{error: err, field: name}
	}
}

func Validation(err error, msg string, opts ...Opt) error {
	opts = append(opts, WithKind(KindValidation), WithMessage(msg))
	return Wrap(err, opts...)
}

func Adapter(err error, opts ...Opt) error {
	opts = append(opts, WithKind(KindAdapter))
	return Wrap(err, opts...)
}

func Corrupt(err error, opts ...Opt) error {
	opts = append(opts, WithKind(KindCorrupt))
	return Wrap(err, opts...)
}

type kinder interface {
	Kind() Kind
}

func KindOf(err error) Kind {
	var ke kinder
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindUnknown
}

type fielder interface {
	Field() string
}

func Field(err error) (string, bool) {
	var fe fielder
	if errors.As(err, &fe) {
		return fe.Field(), true
	}
	return "", false
}

type messenger interface {
	Message() string
}

// Message returns the caller-facing text of an error: the tagged
// message when present, the raw error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var me messenger
	if errors.As(err, &me) {
		return me.Message()
	}
	return err.Error()
}

type kindError struct {
	error
	kind Kind
}

func (e *kindError) Kind() Kind    { return e.kind }
func (e *kindError) Unwrap() error { return e.error }

type messageError struct {
	error
	msg string
}

func (e *messageError) Message() string { return e.msg }
func (e *messageError) Unwrap() error   { return e.error }

type fieldError struct {
	error
	field string
}

func (e *fieldError) Field() string { return e.field }
func (e *fieldError) Unwrap() error { return e.error }
