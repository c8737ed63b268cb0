package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStore persists uploaded profile photos and returns their public URL
type PhotoStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// LocalPhotoStore writes photos to a directory served under baseURL
type LocalPhotoStore struct {
	dir     string
	baseURL string
}

// NewLocalPhotoStore creates the upload directory if needed
func NewLocalPhotoStore(dir, baseURL string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalPhotoStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory photos are written to
func (s *LocalPhotoStore) Dir() string {
	return s.dir
}

func (s *LocalPhotoStore) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if key != filepath.Base(key) {
		return "", fmt.Errorf("invalid photo key %q", key)
	}

	path := filepath.Join(s.dir, key)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}

	_, err = io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// S3PhotoStore uploads photos to an S3-compatible bucket
type S3PhotoStore struct {
	s3Client  *s3.Client
	s3Bucket  string
	publicURL string
}

// NewS3PhotoStore creates an S3 photo store. Static credentials are used when
// accessKey is set, otherwise the default AWS credential chain applies. A
// custom endpoint switches to path-style addressing.
func NewS3PhotoStore(ctx context.Context, region, bucket, accessKey, secretKey, endpoint, publicURL string) (*S3PhotoStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if publicURL == "" {
		if endpoint != "" {
			publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), bucket)
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}

	return &S3PhotoStore{
		s3Client:  s3Client,
		s3Bucket:  bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *S3PhotoStore) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	s3Key := "avatars/" + key

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(s3Key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s.publicURL + "/" + s3Key, nil
}
