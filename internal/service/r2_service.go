package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	cfg "github.com/Houman6460/fooodis-blog-sub005/configs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStorage stores uploaded media and returns its public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// R2Service uploads objects to a Cloudflare R2 bucket through the S3 API.
type R2Service struct {
	config cfg.R2

	once   sync.Once
	client *s3.Client
	err    error
}

func NewR2Service(c cfg.R2) *R2Service {
	return &R2Service{config: c}
}

func (r *R2Service) r2Client(ctx context.Context) (*s3.Client, error) {
	r.once.Do(func() {
		awsCfg, err := config.LoadDefaultConfig(ctx,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.AccessKey, r.config.SecretKey, "")),
			config.WithRegion("auto"),
		)
		if err != nil {
			slog.Info(err.Error())
			r.err = fmt.Errorf("load r2 config: %w", err)
			return
		}

		r.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.AccountID))
		})
	})
	return r.client, r.err
}

func (r *R2Service) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if r.config.BucketName == "" {
		return "", fmt.Errorf("r2 bucket is not configured")
	}

	client, err := r.r2Client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return r.PublicURL(key), nil
}

func (r *R2Service) PublicURL(key string) string {
	return strings.TrimRight(r.config.PublicURL, "/") + "/" + key
}
