// Package avatar serves profile avatars from R2 through pre-signed GET URLs.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrInvalidReference is returned for avatar references that are not UUIDs.
var ErrInvalidReference = errors.New("invalid avatar reference")

// KeyPrefix is the object key prefix under which avatars are stored.
const KeyPrefix = "img/"

// PresignedResolver signs short-lived GET URLs for avatar objects.
type PresignedResolver struct {
	presignClient *s3.PresignClient
	bucketName    string
	urlExpiry     time.Duration
}

// R2Config holds configuration for the R2 avatar bucket.
type R2Config struct {
	BucketName       string
	AccessKeyID      string
	SecretAccessKey  string
	Endpoint         string
	URLExpiryMinutes int // Default: 60 minutes
}

// NewPresignedResolver creates a resolver for the given bucket.
func NewPresignedResolver(cfg R2Config) (*PresignedResolver, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.URLExpiryMinutes <= 0 {
		cfg.URLExpiryMinutes = 60
	}

	s3Client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true, // R2 requires path-style addressing
	})

	return &PresignedResolver{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		urlExpiry:     time.Duration(cfg.URLExpiryMinutes) * time.Minute,
	}, nil
}

// ObjectKey returns the bucket key of an avatar.
func ObjectKey(avatarUUID string) (string, error) {
	id, err := uuid.Parse(avatarUUID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return KeyPrefix + id.String(), nil
}

// AvatarURL returns a pre-signed GET URL for the avatar. Signing happens
// locally; no request reaches the bucket.
func (r *PresignedResolver) AvatarURL(ctx context.Context, avatarUUID string) (string, error) {
	key, err := ObjectKey(avatarUUID)
	if err != nil {
		return "", err
	}

	presigned, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = r.urlExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar: %w", err)
	}
	return presigned.URL, nil
}

// Expiry returns how long signed URLs stay valid.
func (r *PresignedResolver) Expiry() time.Duration {
	return r.urlExpiry
}
