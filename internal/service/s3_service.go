package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service presigns object uploads for profile photos.
type S3Service struct {
	presignClient *s3.PresignClient
	bucketName    string
}

// NewS3Service wraps an S3 client.
func NewS3Service(s3Client *s3.Client, bucketName string) *S3Service {
	return &S3Service{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
	}
}

// NewS3ServiceFromEnv builds an S3Service using the default AWS credential
// chain. endpoint overrides the service URL for S3-compatible stores and
// switches to path-style addressing.
func NewS3ServiceFromEnv(ctx context.Context, region, endpoint, bucketName string) (*S3Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Service(client, bucketName), nil
}

// GeneratePresignedPutURL returns a URL the client can PUT the object to.
func (s *S3Service) GeneratePresignedPutURL(ctx context.Context, objectKey string, lifetime time.Duration) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("object key must not be empty")
	}

	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(lifetime))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", objectKey, err)
	}
	return request.URL, nil
}
