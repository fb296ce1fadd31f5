// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/config"
)

// StorageService keeps submission media in S3. Without AWS credentials it
// hands out local URLs so development works offline.
type StorageService struct {
	s3Client *s3.S3
	config   config.AWSConfig
	options  UploadOptions
}

type UploadOptions struct {
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

var _ MediaStorage = (*StorageService)(nil)

func NewStorageService(cfg config.AWSConfig, maxUploadMB int64) (*StorageService, error) {
	options := DefaultMediaOptions(maxUploadMB)
	if cfg.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg, options: options}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
		options:  options,
	}, nil
}

func DefaultMediaOptions(maxUploadMB int64) UploadOptions {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return UploadOptions{
		MaxSize:      maxUploadMB * 1024 * 1024,
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".mov", ".webm"},
		IsPublic:     true,
	}
}

func (s *StorageService) Upload(ctx context.Context, file MediaFile, folder string) (string, error) {
	// Validate file size
	if s.options.MaxSize > 0 && file.Size > s.options.MaxSize {
		return "", fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", file.Size, s.options.MaxSize)
	}

	// Validate file type
	if len(s.options.AllowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(file.Name))
		allowed := false
		for _, allowedType := range s.options.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("file type %s is not allowed", fileExt)
		}
	}

	key := s.generateFileName(file.Name, folder)

	fileBytes, err := io.ReadAll(file.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if s.s3Client == nil {
		return fmt.Sprintf("http://localhost:8080/uploads/%s", key), nil
	}

	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}
	if s.options.IsPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.getS3URL(key), nil
}

func (s *StorageService) Delete(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("Local storage, nothing to delete")
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalName))

	// Create filename with timestamp and UUID
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.S3Bucket, s.config.Region, key)
}

// keyFromURL reverses getS3URL and the local upload URL.
func (s *StorageService) keyFromURL(url string) string {
	prefixes := []string{
		"http://localhost:8080/uploads/",
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.config.S3Bucket, s.config.Region),
	}
	if s.config.CloudFrontURL != "" {
		prefixes = append(prefixes, s.config.CloudFrontURL+"/")
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}
