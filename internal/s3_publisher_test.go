package internal

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
)

type fakeBuckets struct {
	headErr   error
	createErr error
	created   []string
}

func (f *fakeBuckets) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeBuckets) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(params.Bucket))
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &s3.CreateBucketOutput{}, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failKey string
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	key := aws.ToString(input.Key)
	if key == f.failKey {
		return nil, errors.New("connection reset")
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.objects[aws.ToString(input.Bucket)+"/"+key] = data
	f.types[key] = aws.ToString(input.ContentType)
	return &manager.UploadOutput{Key: input.Key}, nil
}

func testBuildResult() *sdojsd.BuildResult {
	return &sdojsd.BuildResult{
		ID:         uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Graph:      sdojsd.NewGraph(nil, nil, nil),
		JSONLD:     []byte("{}\n"),
		TypeScript: "export type Text = string\n",
		JSDoc:      "/** @typedef {string} Text */\n",
	}
}

func TestS3PublisherPublish(t *testing.T) {
	buckets := &fakeBuckets{}
	uploader := &fakeUploader{}
	cfg := sdojsd.PublishConfig{Bucket: "vocab", Prefix: "schemaorg"}
	pub := newS3Publisher(buckets, uploader, cfg, sdojsd.DefaultConfig().Output)

	keys, err := pub.Publish(context.Background(), testBuildResult())
	require.NoError(t, err)

	build := "schemaorg/0f8fad5b-d9cb-469f-a165-70867728950e/"
	assert.Equal(t, []string{
		build + "schemaorg.jsonld",
		build + "schemaorg.d.ts",
		build + "schemaorg.typedef.js",
		build + "manifest.json",
		"schemaorg/latest/schemaorg.jsonld",
		"schemaorg/latest/schemaorg.d.ts",
		"schemaorg/latest/schemaorg.typedef.js",
		"schemaorg/latest/manifest.json",
	}, keys)
	assert.Empty(t, buckets.created)

	assert.Equal(t, "export type Text = string\n", string(uploader.objects["vocab/schemaorg/latest/schemaorg.d.ts"]))
	assert.Equal(t, "application/ld+json", uploader.types[build+"schemaorg.jsonld"])
	assert.Equal(t, "application/json", uploader.types[build+"manifest.json"])
	assert.Contains(t, string(uploader.objects["vocab/"+build+"manifest.json"]), `"buildId": "0f8fad5b-d9cb-469f-a165-70867728950e"`)
}

func TestS3PublisherEnsureBucket(t *testing.T) {
	notFound := errors.New("not found")
	tests := []struct {
		name       string
		buckets    *fakeBuckets
		wantErr    bool
		wantCreate bool
	}{
		{name: "exists", buckets: &fakeBuckets{}},
		{name: "created", buckets: &fakeBuckets{headErr: notFound}, wantCreate: true},
		{
			name:       "owned by us",
			buckets:    &fakeBuckets{headErr: notFound, createErr: &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}},
			wantCreate: true,
		},
		{
			name:       "created concurrently",
			buckets:    &fakeBuckets{headErr: notFound, createErr: &smithy.GenericAPIError{Code: "BucketAlreadyExists"}},
			wantCreate: true,
		},
		{
			name:       "access denied",
			buckets:    &fakeBuckets{headErr: notFound, createErr: &smithy.GenericAPIError{Code: "AccessDenied"}},
			wantErr:    true,
			wantCreate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := newS3Publisher(tt.buckets, &fakeUploader{}, sdojsd.PublishConfig{Bucket: "vocab"}, sdojsd.DefaultConfig().Output)
			err := pub.ensureBucket(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantCreate {
				assert.Equal(t, []string{"vocab"}, tt.buckets.created)
			} else {
				assert.Empty(t, tt.buckets.created)
			}
		})
	}
}

func TestS3PublisherStopsOnUploadError(t *testing.T) {
	uploader := &fakeUploader{failKey: "latest/schemaorg.jsonld"}
	pub := newS3Publisher(&fakeBuckets{}, uploader, sdojsd.PublishConfig{Bucket: "vocab"}, sdojsd.DefaultConfig().Output)

	keys, err := pub.Publish(context.Background(), testBuildResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latest/schemaorg.jsonld")
	assert.Len(t, keys, 4, "keys written before the failure are returned")
}
