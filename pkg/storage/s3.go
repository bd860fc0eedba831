package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	// MaxArtifactSize caps receipt and evidence uploads (10MB).
	MaxArtifactSize = 10 * 1024 * 1024
	// FolderReceipts is the S3 prefix for bank-transfer receipt objects.
	FolderReceipts = "receipts"
	// FolderEvidence is the S3 prefix for dispute evidence objects.
	FolderEvidence = "evidence"
)

// Allowed artifact MIME types and extensions. Receipts and evidence are
// documents or photos of documents.
var (
	AllowedArtifactTypes = map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
	}
	AllowedArtifactExtensions = map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireMinutes int
}

// S3 stores settlement artifacts and hands out stable object keys. It has
// no business logic; callers persist the returned key on the entity.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	log      *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the
// AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY environment.
func NewS3(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if log != nil {
		log.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		log:      log,
	}, nil
}

// ValidateArtifactType returns true if the content type and/or extension
// are allowed for settlement artifacts.
func ValidateArtifactType(contentType, filename string) bool {
	if contentType != "" {
		if _, ok := AllowedArtifactTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if _, ok := AllowedArtifactExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeForFilename returns the MIME type for an artifact filename.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedArtifactExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ReceiptKey returns the object key: receipts/{payment_id}/{filename}.
func ReceiptKey(paymentID, filename string) string {
	return path.Join(FolderReceipts, paymentID, path.Base(filename))
}

// EvidenceKey returns the object key: evidence/{dispute_id}/{filename}.
func EvidenceKey(disputeID, filename string) string {
	return path.Join(FolderEvidence, disputeID, path.Base(filename))
}

// Upload streams an artifact to S3 and returns its object key as the
// stable pointer stored on the Payment or Dispute.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error) {
	var contentLengthPtr *int64
	if contentLength > 0 {
		contentLengthPtr = &contentLength
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLengthPtr,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// PresignedDownloadURL returns a pre-signed GET URL so arbiters can view
// receipts and evidence without the bucket being public.
func (s *S3) PresignedDownloadURL(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// DeleteObject removes an artifact. Entities are append-only; this exists
// for operator cleanup of mistaken uploads only.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
