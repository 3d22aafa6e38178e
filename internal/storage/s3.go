package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds the bucket and credentials for S3 compatible storage
type S3Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	UsePathStyle bool
}

// S3Store keeps album folders as key prefixes in one bucket
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3 client. Static credentials are used when given,
// otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// CreateFolder writes an empty marker object and returns the folder prefix
func (s *S3Store) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	prefix := folderPrefix(name, parentID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(prefix),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", prefix, err)
	}

	return prefix, nil
}

// UploadFile stores r under the folder prefix and returns the object key
func (s *S3Store) UploadFile(ctx context.Context, r io.Reader, size int64, name, folderID, mimeType string) (string, error) {
	key := objectKey(folderID, name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return key, nil
}

func folderPrefix(name, parentID string) string {
	prefix := cleanName(name) + "/"
	if parent := strings.Trim(parentID, "/"); parent != "" {
		prefix = parent + "/" + prefix
	}
	return prefix
}

// objectKey is {folder}/{uuid}-{name}; the uuid keeps repeated file names apart
func objectKey(folderID, name string) string {
	folder := strings.TrimSuffix(folderID, "/")
	key := uuid.New().String() + "-" + cleanName(name)
	if folder == "" {
		return key
	}
	return folder + "/" + key
}
