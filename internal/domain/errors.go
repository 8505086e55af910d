package domain

import (
	"errors"
	"fmt"
)

// User-facing messages
const (
	MsgUnknownError   = "Something went wrong, please try again."
	MsgUnknownURL     = "Requested resource url is not available."
	MsgConnectionLost = "You seem offline, Please check your network connectivity."
	MsgNoInternet     = "Please check your network connectivity and try again."
	MsgRequestTimeout = "Request time out, please try again."
	MsgStorageFailure = "Could not save albums on this device, please try again."
	MsgNoRecords      = "No records found"
)

// ErrorKind classifies why a sync attempt failed
type ErrorKind string

const (
	KindNoConnectivity  ErrorKind = "NoConnectivity"
	KindTimeout         ErrorKind = "Timeout"
	KindConnectionLost  ErrorKind = "ConnectionLost"
	KindUnreachableHost ErrorKind = "UnreachableHost"
	KindDecodeError     ErrorKind = "DecodeError"
	KindUnknownError    ErrorKind = "UnknownError"
	KindStorageError    ErrorKind = "StorageError"
)

// defaultMessage maps a kind to the message shown to users
func (k ErrorKind) defaultMessage() string {
	switch k {
	case KindNoConnectivity, KindConnectionLost:
		return MsgConnectionLost
	case KindUnreachableHost:
		return MsgNoInternet
	case KindTimeout:
		return MsgRequestTimeout
	case KindStorageError:
		return MsgStorageFailure
	default:
		return MsgUnknownError
	}
}

// FetchError is the typed error returned by the fetch and sync pipeline.
// Message is safe to show to users; Code is optional (0 means absent) and
// carries the upstream HTTP status when there is one.
type FetchError struct {
	Kind    ErrorKind
	Message string
	Code    int
	Err     error
}

// NewFetchError builds a FetchError with the default message for kind
func NewFetchError(kind ErrorKind, err error) *FetchError {
	return &FetchError{Kind: kind, Message: kind.defaultMessage(), Err: err}
}

// WithCode returns a copy of e carrying code
func (e *FetchError) WithCode(code int) *FetchError {
	c := *e
	c.Code = code
	return &c
}

func (e *FetchError) Error() string {
	var s string
	if e.Code != 0 {
		s = fmt.Sprintf("%s (code %d): %s", e.Kind, e.Code, e.Message)
	} else {
		s = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind, e.g. errors.Is(err, ErrTimeout)
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil && t.Code == 0
}

// Kind sentinels for errors.Is
var (
	ErrNoConnectivity  = &FetchError{Kind: KindNoConnectivity}
	ErrTimeout         = &FetchError{Kind: KindTimeout}
	ErrConnectionLost  = &FetchError{Kind: KindConnectionLost}
	ErrUnreachableHost = &FetchError{Kind: KindUnreachableHost}
	ErrDecode          = &FetchError{Kind: KindDecodeError}
	ErrUnknown         = &FetchError{Kind: KindUnknownError}
	ErrStorage         = &FetchError{Kind: KindStorageError}
)

// AsFetchError extracts a *FetchError from err, wrapping anything else as
// an UnknownError so callers always have a message to show
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return NewFetchError(KindUnknownError, err)
}

var (
	// Store errors
	ErrFeedNotFound   = errors.New("feed not found")
	ErrSchemaMismatch = errors.New("store schema version mismatch")
	ErrCorruptFeed    = errors.New("stored feed is incomplete")

	// Read errors
	ErrAlbumNotFound = errors.New("album not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
