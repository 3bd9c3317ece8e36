package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal"
)

const DefaultRegion = "us-east-1"

type Option func(*Repository)

func WithRegion(region string) Option {
	return func(r *Repository) {
		r.Region = region
	}
}

func WithBucket(bucket string) Option {
	return func(r *Repository) {
		r.Bucket = bucket
	}
}

func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.Prefix = prefix
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

func WithForcePathStyle(forcePathStyle bool) Option {
	return func(r *Repository) {
		r.ForcePathStyle = forcePathStyle
	}
}

func WithEndpoint(endpoint string) Option {
	return func(r *Repository) {
		r.Endpoint = endpoint
	}
}

// WithProfile selects a named profile from the shared credentials file.
func WithProfile(profile string) Option {
	return func(r *Repository) {
		r.Profile = profile
	}
}

func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(r *Repository) {
		r.credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
}

func WithClient(client s3iface.S3API) Option {
	return func(r *Repository) {
		r.client = client
	}
}

type Repository struct {
	logger      *zap.Logger
	client      s3iface.S3API
	credentials *credentials.Credentials

	Endpoint       string
	Region         string
	Bucket         string
	Prefix         string
	Profile        string
	ForcePathStyle bool
}

func New(opts ...Option) (*Repository, error) {
	r := &Repository{
		logger: zap.NewNop(),
		Region: DefaultRegion,
	}

	for _, o := range opts {
		o(r)
	}

	if r.Bucket == "" {
		return nil, fmt.Errorf("s3: no destination bucket supplied")
	}

	if r.client != nil {
		return r, nil
	}

	awsConfig := aws.Config{
		Region:           aws.String(r.Region),
		S3ForcePathStyle: aws.Bool(r.ForcePathStyle),
	}

	if r.Endpoint != "" {
		awsConfig.Endpoint = aws.String(r.Endpoint)
	}

	if r.credentials != nil {
		awsConfig.Credentials = r.credentials
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsConfig,
		Profile:           r.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: creating session: %w", err)
	}
	r.client = s3.New(sess)

	return r, nil
}

func (r *Repository) key(key string) string {
	if r.Prefix == "" {
		return key
	}
	return path.Join(r.Prefix, key)
}

func (r *Repository) Put(ctx context.Context, obj *internal.Object) error {
	objPath := r.key(obj.Key)

	r.logger.Debug(
		"S3 put",
		zap.String("key", obj.Key),
		zap.String("prefix", r.Prefix),
		zap.String("object_path", objPath),
		zap.String("bucket", r.Bucket),
		zap.Int64("content_length", obj.Len()),
	)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.Bucket),
		Key:           aws.String(objPath),
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(obj.Len()),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.ACL != "" {
		input.ACL = aws.String(obj.ACL)
	}
	if len(obj.Metadata) > 0 {
		input.Metadata = aws.StringMap(obj.Metadata)
	}

	if _, err := r.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("s3: put s3://%s/%s: %w", r.Bucket, objPath, err)
	}
	return nil
}
