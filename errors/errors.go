package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass tells callers what to do with a failure.
type ErrorClass int

const (
	// ErrorTransient covers timeouts and unavailable upstreams; a later call may succeed.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid covers bad requests and malformed upstream data.
	ErrorInvalid
	// ErrorFatal covers misconfiguration; nothing succeeds until it is fixed.
	ErrorFatal
)

var classNames = map[ErrorClass]string{
	ErrorTransient: "transient",
	ErrorInvalid:   "invalid",
	ErrorFatal:     "fatal",
}

// String returns the lower-case class name used in logs and API errors.
func (ec ErrorClass) String() string {
	if name, ok := classNames[ec]; ok {
		return name
	}
	return "unknown"
}

// Transport, data and configuration sentinels.
var (
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrUpstreamStatus    = errors.New("unexpected upstream status")
	ErrRateLimited       = errors.New("rate limited")

	ErrInvalidData   = errors.New("invalid data format")
	ErrParsingFailed = errors.New("parsing failed")
	ErrRaggedColumns = errors.New("all arrays of data must be the same length")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// Unclassified errors are matched against these in order.
var (
	transientSentinels = []error{
		ErrConnectionTimeout, ErrConnectionLost, ErrRateLimited,
		context.DeadlineExceeded, context.Canceled,
	}
	fatalSentinels = []error{
		ErrInvalidConfig, ErrMissingConfig, ErrMissingDependency,
	}
	invalidSentinels = []error{
		ErrInvalidData, ErrParsingFailed, ErrRaggedColumns,
		ErrUnknownNamespace, ErrUnknownTransform, ErrInvalidField, ErrMissingField,
		ErrEmptySequence, ErrMissingMergeColumn,
	}
	transientHints = []string{"timeout", "connection", "network", "temporary", "unavailable"}
)

// ClassifiedError attaches a class and its origin to an error.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf reports an explicit class found anywhere in the chain.
func classOf(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

func matchesAny(err error, sentinels []error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is classified transient, wraps a transient
// sentinel or reads like a network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorTransient
	}
	if matchesAny(err, transientSentinels) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsFatal reports whether err is classified fatal or wraps a configuration sentinel.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorFatal
	}
	return matchesAny(err, fatalSentinels)
}

// IsInvalid reports whether err is classified invalid or wraps a request or data sentinel.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorInvalid
	}
	return matchesAny(err, invalidSentinels)
}

// Classify returns the class of err. An explicit class wins; unrecognised
// errors count as transient, the usual case for upstream failures.
func Classify(err error) ErrorClass {
	if class, ok := classOf(err); ok {
		return class
	}
	switch {
	case err == nil:
		return ErrorTransient
	case matchesAny(err, fatalSentinels):
		return ErrorFatal
	case matchesAny(err, invalidSentinels):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// Wrap returns "component.method: action failed: err", or nil for a nil err.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err like Wrap and classifies it transient.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps err like Wrap and classifies it fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps err like Wrap and classifies it invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}
