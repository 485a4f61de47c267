//go:build integration

package testutil

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

// S3Client wraps the AWS S3 client with test helpers. It is the reference
// zapctl's requests are checked against.
type S3Client struct {
	*s3.Client
	t *testing.T
}

// NewS3Client creates an S3 client for the target.
func NewS3Client(t *testing.T, target Target) *S3Client {
	t.Helper()

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(target.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			target.AccessKeyID,
			target.SecretAccessKey,
			"",
		)),
	)
	require.NoError(t, err, "failed to create AWS config")

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(target.Origin)
		o.UsePathStyle = target.URLStyle != "vhost"
	})
	return &S3Client{Client: client, t: t}
}

// CreateBucket creates a bucket and removes it, with everything in it, when
// the test ends.
func (c *S3Client) CreateBucket(bucket string) {
	c.t.Helper()

	ctx, cancel := WithTimeout(context.Background())
	defer cancel()

	_, err := c.Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	require.NoError(c.t, err, "failed to create bucket %s", bucket)
	c.t.Cleanup(func() { c.removeBucket(bucket) })
}

func (c *S3Client) removeBucket(bucket string) {
	ctx, cancel := WithTimeout(context.Background())
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(c.Client, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.t.Logf("list %s for cleanup: %v", bucket, err)
			return
		}
		if len(page.Contents) == 0 {
			continue
		}
		var ids []types.ObjectIdentifier
		for _, o := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: o.Key})
		}
		_, err = c.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			c.t.Logf("empty %s: %v", bucket, err)
			return
		}
	}
	if _, err := c.Client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}); err != nil {
		c.t.Logf("delete bucket %s: %v", bucket, err)
	}
}

// PutObject uploads an object
func (c *S3Client) PutObject(bucket, key string, data []byte) *s3.PutObjectOutput {
	c.t.Helper()

	ctx, cancel := WithTimeout(context.Background())
	defer cancel()

	resp, err := c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	require.NoError(c.t, err, "failed to put object %s/%s", bucket, key)
	return resp
}

// GetObject retrieves an object
func (c *S3Client) GetObject(bucket, key string) []byte {
	c.t.Helper()

	ctx, cancel := WithTimeout(context.Background())
	defer cancel()

	resp, err := c.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	require.NoError(c.t, err, "failed to get object %s/%s", bucket, key)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err, "failed to read object body")
	return data
}

// HeadObject returns metadata, or nil when the object does not exist.
func (c *S3Client) HeadObject(bucket, key string) *s3.HeadObjectOutput {
	c.t.Helper()

	ctx, cancel := WithTimeout(context.Background())
	defer cancel()

	resp, err := c.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		require.ErrorAs(c.t, err, &notFound, "failed to head object %s/%s", bucket, key)
		return nil
	}
	return resp
}
