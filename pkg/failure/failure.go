package failure

import (
	"errors"
	"fmt"
	"maps"
)

// Kind identifies a user-facing failure. Every Kind maps to a translation key.
type Kind int

const (
	UnknownError Kind = iota
	NoFileSelected
	InvalidType
	TooLarge
	Empty
	UnreadableImage
	FetchFailed
	NoStreamBody
	DecodeError
	BlockedSafety
	BlockedRecitation
	Stopped
	UnrecognizedInternal
	CopyFailed
)

var kindKeys = map[Kind]string{
	UnknownError:         "errorUnknown",
	NoFileSelected:       "errorNoFile",
	InvalidType:          "errorInvalidType",
	TooLarge:             "errorSizeLimit",
	Empty:                "errorFileEmpty",
	UnreadableImage:      "errorReadImage",
	FetchFailed:          "errorFetch",
	NoStreamBody:         "errorNoStream",
	DecodeError:          "errorDecode",
	BlockedSafety:        "statusBlockedSafety",
	BlockedRecitation:    "statusBlockedRecitation",
	Stopped:              "statusStopped",
	UnrecognizedInternal: "errorInternalStream",
	CopyFailed:           "errorCopy",
}

var kindNames = map[Kind]string{
	UnknownError:         "unknown_error",
	NoFileSelected:       "no_file_selected",
	InvalidType:          "invalid_type",
	TooLarge:             "too_large",
	Empty:                "empty",
	UnreadableImage:      "unreadable_image",
	FetchFailed:          "fetch_failed",
	NoStreamBody:         "no_stream_body",
	DecodeError:          "decode_error",
	BlockedSafety:        "blocked_safety",
	BlockedRecitation:    "blocked_recitation",
	Stopped:              "stopped",
	UnrecognizedInternal: "unrecognized_internal",
	CopyFailed:           "copy_failed",
}

// MessageKey returns the translation key for the kind.
func (k Kind) MessageKey() string {
	if key, ok := kindKeys[k]; ok {
		return key
	}
	return kindKeys[UnknownError]
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failure that can be rendered through the translation table.
// Key overrides the kind's default message key, which happens when the
// backend answers with an error string that is itself a known key.
type Error struct {
	Kind Kind
	Key  string
	Data map[string]string
	Err  error
}

// New builds an Error for kind with optional substitutions.
func New(kind Kind, data map[string]string) *Error {
	return &Error{Kind: kind, Data: data}
}

// Wrap builds an Error for kind that keeps err as its cause.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// MessageKey returns the key used to render the error.
func (e *Error) MessageKey() string {
	if e.Key != "" {
		return e.Key
	}
	return e.Kind.MessageKey()
}

// Substitutions returns a copy of the placeholder values.
func (e *Error) Substitutions() map[string]string {
	return maps.Clone(e.Data)
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	for _, name := range []string{"fileType", "status", "details", "internalError"} {
		if v, ok := e.Data[name]; ok && v != "" {
			msg += fmt.Sprintf(" %s=%s", name, v)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match on kind so errors.Is(err, failure.New(failure.TooLarge, nil)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// As extracts an *Error from err. Anything that is not a failure becomes UnknownError.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return Wrap(UnknownError, err)
}

// KindOf returns the kind of err, or UnknownError.
func KindOf(err error) Kind {
	if fe := As(err); fe != nil {
		return fe.Kind
	}
	return UnknownError
}
