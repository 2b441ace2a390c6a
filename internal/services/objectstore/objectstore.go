package objectstore

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mediaplatform/catalog-service/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service issues presigned upload/download URLs for media asset files
// held in object storage. The catalog only stores the resulting URL;
// the bytes never pass through this service.
type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Uploads
	useSSL     bool
}

type UploadInfo struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

// NewService creates a new object store service instance
func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Uploads,
		useSSL:     cfg.MinIO.UseSSL,
	}

	// Ensure bucket exists
	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ValidateContentType checks if the content type is allowed
func (s *Service) ValidateContentType(contentType string) bool {
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// GenerateObjectKey creates a unique object key for the file
func (s *Service) GenerateObjectKey(contentType string) string {
	extensions, err := mime.ExtensionsByType(contentType)
	var ext string
	if err == nil && len(extensions) > 0 {
		ext = extensions[0]
	} else {
		switch contentType {
		case "audio/mpeg":
			ext = ".mp3"
		case "audio/wav":
			ext = ".wav"
		case "video/mp4":
			ext = ".mp4"
		case "video/mpeg":
			ext = ".mpeg"
		default:
			ext = ""
		}
	}

	filename := uuid.New().String() + ext

	return fmt.Sprintf("assets/%s", filename)
}

// GeneratePresignedUploadURL creates a presigned URL for uploading
func (s *Service) GeneratePresignedUploadURL(ctx context.Context, contentType string) (*UploadInfo, error) {
	if !s.ValidateContentType(contentType) {
		return nil, fmt.Errorf("content type %s is not allowed", contentType)
	}

	objectKey := s.GenerateObjectKey(contentType)

	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	presignedURL, err := s.client.PresignedPutObject(
		ctx,
		s.bucketName,
		objectKey,
		expiry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &UploadInfo{
		ObjectKey:   objectKey,
		UploadURL:   presignedURL.String(),
		ExpiresAt:   time.Now().Add(expiry).Unix(),
		MaxFileSize: s.config.MaxFileSize,
		ContentType: contentType,
	}, nil
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading
func (s *Service) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (*url.URL, error) {
	return s.client.PresignedGetObject(
		ctx,
		s.bucketName,
		objectKey,
		expiry,
		nil,
	)
}

// ObjectURL returns the public URL for an object (if the bucket is public)
func (s *Service) ObjectURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, objectKey)
}
