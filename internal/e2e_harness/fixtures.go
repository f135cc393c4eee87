package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lychee-technology/sdojsd"
)

// CountCatalogRows counts the rows stored for one build, bypassing the store.
func CountCatalogRows(ctx context.Context, db *sql.DB, table string, buildID uuid.UUID) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE build_id = $1", table)
	if err := db.QueryRowContext(ctx, query, buildID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog rows: %w", err)
	}
	return n, nil
}

func newS3Client(ctx context.Context, cfg sdojsd.PublishConfig) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithBaseEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// FetchObject downloads one object from the publish bucket.
func FetchObject(ctx context.Context, cfg sdojsd.PublishConfig, key string) ([]byte, string, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	return data, aws.ToString(out.ContentType), nil
}

// UploadFile puts a local file into the publish bucket, which must exist.
func UploadFile(ctx context.Context, cfg sdojsd.PublishConfig, key, filePath string) error {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	in, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open src: %w", err)
	}
	defer in.Close()

	_, err = manager.NewUploader(client).Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cfg.Bucket),
		Key:         aws.String(key),
		Body:        in,
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}
