//go:build integration

// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package r2

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapctl/integration/testutil"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutObjectReadBySDK(t *testing.T) {
	t.Parallel()
	ref := testutil.NewS3Client(t, target)
	bucket := testBucket(t, ref)
	data := testutil.GenerateTestData(t, 64*1024)
	path := filepath.Join(t.TempDir(), "body")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tests := []struct {
		name     string
		opts     s3client.BodyOptions
		unsigned bool
	}{
		{name: "buffered", opts: s3client.BodyOptions{File: path, ComputeContentMD5: true}},
		{name: "buffered crc32", opts: s3client.BodyOptions{File: path, ChecksumAlgorithm: "CRC32"}},
		{name: "streamed", opts: s3client.BodyOptions{FileStream: path, ComputeContentMD5: true}},
		{name: "streamed crc64nvme", opts: s3client.BodyOptions{FileStream: path, ChecksumAlgorithm: "CRC64NVME"}},
		{name: "streamed unsigned", opts: s3client.BodyOptions{FileStream: path}, unsigned: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.WithTimeout(t.Context())
			defer cancel()
			cc := target.CallContext(tt.unsigned)
			key := testutil.UniqueID("put-" + strings.ReplaceAll(tt.name, " ", "-"))

			body, err := s3client.LoadBody(ctx, tt.opts, tt.unsigned, nil)
			require.NoError(t, err)
			res, err := s3client.PutObject(ctx, s3client.PutObjectOpts{
				Endpoint:   target.Endpoint(),
				Bucket:     bucket,
				Key:        key,
				Body:       body.Body,
				ContentMD5: body.ContentMD5,
				Checksum:   body.Checksum,
			}, cc)
			require.NoError(t, err)
			assert.Equal(t, `"`+testutil.ComputeETag(data)+`"`, res.ETag)

			assert.Equal(t, data, ref.GetObject(bucket, key))
		})
	}
}

func TestSDKObjectReadByZapctl(t *testing.T) {
	t.Parallel()
	ref := testutil.NewS3Client(t, target)
	bucket := testBucket(t, ref)
	ctx, cancel := testutil.WithTimeout(t.Context())
	defer cancel()
	cc := target.CallContext(false)

	key := testutil.UniqueID("dir/with spaces+plus")
	data := testutil.GenerateTestData(t, 4096)
	put := ref.PutObject(bucket, key, data)
	opts := s3client.GetObjectOpts{Endpoint: target.Endpoint(), Bucket: bucket, Key: key}

	res, err := s3client.GetObject(ctx, opts, cc)
	require.NoError(t, err)
	require.NotNil(t, res)
	got, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ranged := opts
	ranged.Range = "bytes=10-19"
	res, err = s3client.GetObject(ctx, ranged, cc)
	require.NoError(t, err)
	got, err = io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, res.StatusCode)
	assert.Equal(t, data[10:20], got)

	cond := opts
	cond.IfNoneMatch = *put.ETag
	res, err = s3client.HeadObject(ctx, cond, cc)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, res.StatusCode)

	missing := opts
	missing.Key = key + "-missing"
	res, err = s3client.GetObject(ctx, missing, cc)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCopyListDelete(t *testing.T) {
	t.Parallel()
	ref := testutil.NewS3Client(t, target)
	bucket := testBucket(t, ref)
	ctx, cancel := testutil.WithTimeout(t.Context())
	defer cancel()
	cc := target.CallContext(false)
	ep := target.Endpoint()

	prefix := testutil.UniqueID("list") + "/"
	ref.PutObject(bucket, prefix+"a", []byte("a"))
	ref.PutObject(bucket, prefix+"sub/b", []byte("bb"))

	copied, err := s3client.CopyObject(ctx, s3client.CopyObjectOpts{
		Endpoint: ep, Bucket: bucket, Key: prefix + "c",
		SourceBucket: bucket, SourceKey: prefix + "a",
	}, cc)
	require.NoError(t, err)
	assert.Equal(t, `"`+testutil.ComputeETag([]byte("a"))+`"`, copied.ETag)

	list, err := s3client.ListObjectsV2(ctx, s3client.ListObjectsV2Opts{Endpoint: ep, Bucket: bucket, Prefix: prefix, Delimiter: "/"}, cc)
	require.NoError(t, err)
	var keys []string
	for _, e := range list.Contents {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{prefix + "a", prefix + "c"}, keys)
	require.Len(t, list.CommonPrefixes, 1)
	assert.Equal(t, prefix+"sub/", list.CommonPrefixes[0].Prefix)

	page, err := s3client.ListObjects(ctx, s3client.ListObjectsOpts{Endpoint: ep, Bucket: bucket, Prefix: prefix, MaxKeys: 1}, cc)
	require.NoError(t, err)
	assert.True(t, page.IsTruncated)
	assert.Len(t, page.Contents, 1)

	deleted, err := s3client.DeleteObjects(ctx, s3client.DeleteObjectsOpts{Endpoint: ep, Bucket: bucket, Keys: []string{prefix + "a", prefix + "c"}}, cc)
	require.NoError(t, err)
	assert.Len(t, deleted.Deleted, 2)
	assert.Empty(t, deleted.Errors)

	_, err = s3client.DeleteObject(ctx, s3client.DeleteObjectOpts{Endpoint: ep, Bucket: bucket, Key: prefix + "sub/b"}, cc)
	require.NoError(t, err)
	assert.Nil(t, ref.HeadObject(bucket, prefix+"sub/b"))
}

func TestBucketOperations(t *testing.T) {
	t.Parallel()
	ref := testutil.NewS3Client(t, target)
	bucket := testBucket(t, ref)
	ctx, cancel := testutil.WithTimeout(t.Context())
	defer cancel()
	cc := target.CallContext(false)

	res, err := s3client.HeadBucket(ctx, s3client.HeadBucketOpts{Endpoint: target.Endpoint(), Bucket: bucket}, cc)
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = s3client.HeadBucket(ctx, s3client.HeadBucketOpts{Endpoint: target.Endpoint(), Bucket: testutil.UniqueID("absent")}, cc)
	require.NoError(t, err)
	assert.Nil(t, res)

	if target.Bucket != "" {
		return
	}
	buckets, err := s3client.ListBuckets(ctx, target.Endpoint(), cc)
	require.NoError(t, err)
	var names []string
	for _, b := range buckets.Buckets.Buckets {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, bucket)
}

func TestCreateDeleteBucket(t *testing.T) {
	t.Parallel()
	if target.Bucket != "" {
		t.Skip("target pins a bucket")
	}
	ctx, cancel := testutil.WithTimeout(t.Context())
	defer cancel()
	cc := target.CallContext(false)
	bucket := testutil.UniqueID("zapctl-create")

	_, err := s3client.CreateBucket(ctx, s3client.CreateBucketOpts{Endpoint: target.Endpoint(), Bucket: bucket}, cc)
	require.NoError(t, err)

	res, err := s3client.HeadBucket(ctx, s3client.HeadBucketOpts{Endpoint: target.Endpoint(), Bucket: bucket}, cc)
	require.NoError(t, err)
	require.NotNil(t, res)

	_, err = s3client.DeleteBucket(ctx, s3client.DeleteBucketOpts{Endpoint: target.Endpoint(), Bucket: bucket}, cc)
	require.NoError(t, err)

	res, err = s3client.HeadBucket(ctx, s3client.HeadBucketOpts{Endpoint: target.Endpoint(), Bucket: bucket}, cc)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestPresignedURL(t *testing.T) {
	t.Parallel()
	ref := testutil.NewS3Client(t, target)
	bucket := testBucket(t, ref)
	key := testutil.UniqueID("presigned")
	ref.PutObject(bucket, key, []byte("shared"))

	u, err := s3client.BucketURL(s3client.AddressInput{Origin: target.Origin, Bucket: bucket, Key: key, Style: target.URLStyle})
	require.NoError(t, err)
	creds := target.CallContext(false).Credentials
	presigned, err := signature.NewSigner(creds, target.Region).Presign(http.MethodGet, u, 5*time.Minute, time.Now())
	require.NoError(t, err)

	res, err := http.Get(presigned.String())
	require.NoError(t, err)
	defer res.Body.Close()
	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode, string(got))
	assert.True(t, bytes.Equal([]byte("shared"), got))
}
