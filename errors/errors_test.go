package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestClassification(t *testing.T) {
	upstream := fmt.Errorf("ld page 2: %w", ErrUpstreamStatus)

	tests := []struct {
		name      string
		err       error
		class     ErrorClass
		transient bool
		invalid   bool
		fatal     bool
	}{
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), ErrorTransient, true, false, false},
		{"rate limited", ErrRateLimited, ErrorTransient, true, false, false},
		{"network wording", errors.New("dial tcp: connection refused"), ErrorTransient, true, false, false},
		{"plain unknown", errors.New("boom"), ErrorTransient, false, false, false},
		{"ragged columns", fmt.Errorf("normalize: %w", ErrRaggedColumns), ErrorInvalid, false, true, false},
		{"unknown namespace", &UnknownNamespaceError{Namespace: "ld"}, ErrorInvalid, false, true, false},
		{"wrapped missing field", fmt.Errorf("stage: %w", &MissingFieldError{Field: "a", Outname: "ns:a"}), ErrorInvalid, false, true, false},
		{"empty sequence", fmt.Errorf("prepare: %w", &EmptySequenceError{Field: "assoc:pvalue"}), ErrorInvalid, false, true, false},
		{"missing merge column", &MissingMergeColumnError{Missing: []string{"pvalue"}, Available: []string{"assoc:position"}}, ErrorInvalid, false, true, false},
		{"missing config", ErrMissingConfig, ErrorFatal, false, false, true},
		{"missing dependency", &MissingDependencyError{Connector: "agg", Upstream: "genes"}, ErrorFatal, false, false, true},
		{"explicit class wins", WrapInvalid(upstream, "assoc", "Fetch", "request"), ErrorInvalid, false, true, false},
		{"explicit transient over fatal sentinel", WrapTransient(ErrInvalidConfig, "nats", "Connect", "dial"), ErrorTransient, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, Classify(tt.err))
			assert.Equal(t, tt.transient, IsTransient(tt.err), "IsTransient")
			assert.Equal(t, tt.invalid, IsInvalid(tt.err), "IsInvalid")
			assert.Equal(t, tt.fatal, IsFatal(tt.err), "IsFatal")
		})
	}
}

func TestNilErrors(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsInvalid(nil))
	assert.False(t, IsFatal(nil))
	assert.Equal(t, ErrorTransient, Classify(nil))
	assert.NoError(t, Wrap(nil, "c", "m", "a"))
	assert.NoError(t, WrapTransient(nil, "c", "m", "a"))
	assert.NoError(t, WrapInvalid(nil, "c", "m", "a"))
	assert.NoError(t, WrapFatal(nil, "c", "m", "a"))
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(cause, "ld", "Fetch", "decode page")
	assert.EqualError(t, err, "ld.Fetch: decode page failed: unexpected EOF")
	assert.ErrorIs(t, err, cause)
}

func TestWrapClassified(t *testing.T) {
	cause := fmt.Errorf("%w: 503", ErrUpstreamStatus)

	for class, wrap := range map[ErrorClass]func(error, string, string, string) error{
		ErrorTransient: WrapTransient,
		ErrorInvalid:   WrapInvalid,
		ErrorFatal:     WrapFatal,
	} {
		t.Run(class.String(), func(t *testing.T) {
			err := wrap(cause, "gene", "GetJSON", "request")

			var ce *ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, class, ce.Class)
			assert.Equal(t, "gene", ce.Component)
			assert.Equal(t, "GetJSON", ce.Operation)
			assert.Equal(t, "gene.GetJSON: request failed: unexpected upstream status: 503", err.Error())
			assert.ErrorIs(t, err, ErrUpstreamStatus)
		})
	}
}

func TestClassifiedError_MessageFallback(t *testing.T) {
	ce := &ClassifiedError{Class: ErrorFatal, Err: errors.New("no sources")}
	assert.Equal(t, "no sources", ce.Error())
}

func TestEngineErrors_IsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"unknown namespace", &UnknownNamespaceError{Namespace: "ld"}, ErrUnknownNamespace, `"ld"`},
		{"unknown transform", &UnknownTransformError{Name: "bogus", Token: "a:b|bogus"}, ErrUnknownTransform, "a:b|bogus"},
		{"duplicate transform", &DuplicateTransformError{Name: "neglog10"}, ErrDuplicateTransform, "neglog10"},
		{"invalid field", &InvalidFieldError{Token: "a:b:c"}, ErrInvalidField, "a:b:c"},
		{"missing field", &MissingFieldError{Field: "pvalue", Outname: "assoc:pvalue"}, ErrMissingField, "assoc:pvalue"},
		{"empty sequence", &EmptySequenceError{Field: "p"}, ErrEmptySequence, "empty"},
		{
			"missing merge column",
			&MissingMergeColumnError{Missing: []string{"id", "pvalue"}, Available: []string{"chr", "pos"}},
			ErrMissingMergeColumn,
			"id, pvalue (available: chr,pos)",
		},
		{"missing dependency", &MissingDependencyError{Connector: "agg", Upstream: "genes"}, ErrMissingDependency, "genes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage failed: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func BenchmarkClassify(b *testing.B) {
	err := fmt.Errorf("stage: %w", &MissingFieldError{Field: "a", Outname: "ns:a"})
	for b.Loop() {
		Classify(err)
	}
}
