package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/globizora/api-service/config"
)

// S3ContactArchive stores each submission as a JSON object under contact/<date>/<id>.json.
type S3ContactArchive struct {
	Uploader s3manageriface.UploaderAPI
	Bucket   string
}

func NewS3ContactArchive(cfg config.ContactConfig) (*S3ContactArchive, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.AWSRegion)}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AWSAccessKey, cfg.AWSSecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}

	return &S3ContactArchive{
		Uploader: s3manager.NewUploader(sess),
		Bucket:   cfg.S3Bucket,
	}, nil
}

func (a *S3ContactArchive) Archive(ctx context.Context, sub ContactSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	_, err = a.Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(archiveKey(sub)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func archiveKey(sub ContactSubmission) string {
	return fmt.Sprintf("contact/%s/%s.json", sub.ReceivedAt.Format("2006-01-02"), sub.ID)
}
