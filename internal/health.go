package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lychee-technology/sdojsd"
)

const defaultHealthTimeout = 5 * time.Second

// ValidatePublishCredentials checks that static S3 credentials come in pairs.
func ValidatePublishCredentials(cfg sdojsd.PublishConfig) error {
	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		return &sdojsd.ConfigError{Field: "publish.secretKey", Message: "required when accessKey is set"}
	}
	if cfg.SecretKey != "" && cfg.AccessKey == "" {
		return &sdojsd.ConfigError{Field: "publish.accessKey", Message: "required when secretKey is set"}
	}
	return nil
}

type catalogPinger interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CatalogHealthCheck pings the catalog database and runs a trivial query.
// timeout may be 0 to use the default.
func CatalogHealthCheck(ctx context.Context, pool catalogPinger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("catalog ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("catalog simple query failed: %w", err)
	}
	return nil
}

// EndpointHealthCheck sends an anonymous HEAD to a custom S3 endpoint. Auth
// errors count as reachable but are still reported.
func EndpointHealthCheck(ctx context.Context, endpoint string, timeout time.Duration) error {
	if endpoint == "" {
		return fmt.Errorf("s3 endpoint not configured")
	}
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return fmt.Errorf("s3 health request build failed: %w", err)
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return fmt.Errorf("s3 health request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("s3 endpoint reachable but returned auth error: %d", resp.StatusCode)
	}
	return fmt.Errorf("s3 endpoint returned unexpected status: %d", resp.StatusCode)
}

// Ping checks that the target bucket exists and is reachable with the
// publisher's credentials.
func (p *S3Publisher) Ping(ctx context.Context) error {
	if _, err := p.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", p.bucket, err)
	}
	return nil
}
