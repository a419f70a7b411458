// Package blob serves precomputed region payloads stored as JSON objects in
// an S3-compatible bucket (AWS S3 or MinIO).
package blob

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "blob"

// DefaultKey lays objects out by chromosome and range.
const DefaultKey = "{chr}/{start}-{end}.json"

// ObjectGetter is the subset of the S3 client the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads one object per region.
type Source struct {
	*adapter.Base

	client ObjectGetter
	bucket string
	key    string
}

// New creates a blob source. Params: bucket (required), key (template with
// {chr}, {start} and {end}), region (default us-east-1), endpoint and
// path_style for MinIO, access_key_id/secret_access_key for static
// credentials (otherwise the default AWS credential chain is used).
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	p := spec.Params
	bucket := p.String("bucket", "")
	if bucket == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "bucket param is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(p.String("region", "us-east-1")),
	}
	if key := p.String("access_key_id", ""); key != "" {
		provider := credentials.NewStaticCredentialsProvider(key, p.String("secret_access_key", ""), p.String("session_token", ""))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(provider))
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, errors.WrapInvalid(err, Type, "New", "load aws config")
	}

	endpoint := p.String("endpoint", spec.URL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = p.Bool("path_style", false)
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithClient(id, client, bucket, spec, deps)
}

// NewWithClient creates a blob source over an existing client.
func NewWithClient(id string, client ObjectGetter, bucket string, spec adapter.Spec, deps adapter.Dependencies) (*Source, error) {
	if client == nil || bucket == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "NewWithClient", "client and bucket are required")
	}
	s := &Source{
		client: client,
		bucket: bucket,
		key:    spec.Params.String("key", DefaultKey),
	}
	base, err := adapter.NewBase(s, id, spec, deps)
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

// Registration describes the adapter for an adapter.Registry.
func Registration() *adapter.Registration {
	return &adapter.Registration{
		Name:        Type,
		Protocol:    "s3",
		Description: "Region payloads stored as JSON objects in S3",
		Factory:     New,
	}
}

// ObjectKey expands the key template for state.
func (s *Source) ObjectKey(state chain.State) string {
	return strings.NewReplacer(
		"{chr}", state.Chr,
		"{start}", fmt.Sprint(state.Start),
		"{end}", fmt.Sprint(state.End),
	).Replace(s.key)
}

// CacheKey is the object location.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.bucket + "/" + s.ObjectKey(state), true
}

// Fetch downloads and decodes the region's object.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	key := s.ObjectKey(state)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var missing *types.NoSuchKey
		if stderrors.As(err, &missing) {
			return nil, errors.WrapInvalid(err, Type, "Fetch", fmt.Sprintf("get object %s", key))
		}
		return nil, errors.WrapTransient(err, Type, "Fetch", fmt.Sprintf("get object %s", key))
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.WrapTransient(err, Type, "Fetch", "read object body")
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), Type, "Fetch", "decode object")
	}
	return payload, nil
}
