package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads build artifacts to a bucket, once under the build id and
// once under "latest".
type S3Publisher struct {
	buckets  bucketAPI
	uploader uploadAPI
	bucket   string
	prefix   string
	output   sdojsd.OutputConfig
}

var _ sdojsd.ArtifactPublisher = (*S3Publisher)(nil)

// NewS3Publisher builds an S3 client from cfg. Static credentials and a custom
// endpoint are used when set, which covers MinIO-compatible stores.
func NewS3Publisher(ctx context.Context, cfg sdojsd.PublishConfig, out sdojsd.OutputConfig) (*S3Publisher, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Publisher(client, manager.NewUploader(client), cfg, out), nil
}

func newS3Publisher(buckets bucketAPI, uploader uploadAPI, cfg sdojsd.PublishConfig, out sdojsd.OutputConfig) *S3Publisher {
	return &S3Publisher{buckets: buckets, uploader: uploader, bucket: cfg.Bucket, prefix: cfg.Prefix, output: out}
}

// Publish uploads every artifact of result plus its manifest and returns the
// object keys in upload order.
func (p *S3Publisher) Publish(ctx context.Context, result *sdojsd.BuildResult) ([]string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}

	artifacts := result.Artifacts(p.output)
	manifest, err := json.MarshalIndent(result.Manifest(p.output), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	artifacts = append(artifacts, sdojsd.Artifact{Name: p.output.ManifestFile, ContentType: "application/json", Data: manifest})

	var keys []string
	for _, dir := range []string{result.ID.String(), "latest"} {
		for _, a := range artifacts {
			key := path.Join(p.prefix, dir, a.Name)
			_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(p.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(a.Data),
				ContentType: aws.String(a.ContentType),
			})
			if err != nil {
				return keys, fmt.Errorf("s3 upload %s: %w", key, err)
			}
			keys = append(keys, key)
		}
	}
	zap.S().Infow("artifacts published", "bucket", p.bucket, "buildId", result.ID, "objects", len(keys))
	return keys, nil
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	if _, err := p.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err == nil {
		return nil
	}
	if _, err := p.buckets.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}
