// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3types"
)

// ListObjectsV2Opts are the inputs of ListObjectsV2.
type ListObjectsV2Opts struct {
	Endpoint
	Bucket            string
	Prefix            string
	Delimiter         string
	ContinuationToken string
	StartAfter        string
	EncodingType      string
	MaxKeys           int
}

// ListObjectsV2 returns one page of keys.
func ListObjectsV2(ctx context.Context, opts ListObjectsV2Opts, cc *CallContext) (*s3types.ListObjectsV2Result, error) {
	query := url.Values{s3consts.QueryListType: {"2"}}
	setQuery(query, s3consts.QueryPrefix, opts.Prefix)
	setQuery(query, s3consts.QueryDelimiter, opts.Delimiter)
	setQuery(query, s3consts.QueryContinuationToken, opts.ContinuationToken)
	setQuery(query, s3consts.QueryStartAfter, opts.StartAfter)
	setQuery(query, s3consts.QueryEncodingType, opts.EncodingType)
	if opts.MaxKeys > 0 {
		query.Set(s3consts.QueryMaxKeys, strconv.Itoa(opts.MaxKeys))
	}

	var result s3types.ListObjectsV2Result
	if err := listBucket(ctx, OpListObjectsV2, opts.Endpoint, opts.Bucket, query, &result, cc); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListObjectsOpts are the inputs of the v1 ListObjects.
type ListObjectsOpts struct {
	Endpoint
	Bucket       string
	Prefix       string
	Delimiter    string
	Marker       string
	EncodingType string
	MaxKeys      int
}

// ListObjects returns one page of keys with the v1 marker API.
func ListObjects(ctx context.Context, opts ListObjectsOpts, cc *CallContext) (*s3types.ListObjectsResult, error) {
	query := url.Values{}
	setQuery(query, s3consts.QueryPrefix, opts.Prefix)
	setQuery(query, s3consts.QueryDelimiter, opts.Delimiter)
	setQuery(query, s3consts.QueryMarker, opts.Marker)
	setQuery(query, s3consts.QueryEncodingType, opts.EncodingType)
	if opts.MaxKeys > 0 {
		query.Set(s3consts.QueryMaxKeys, strconv.Itoa(opts.MaxKeys))
	}

	var result s3types.ListObjectsResult
	if err := listBucket(ctx, OpListObjects, opts.Endpoint, opts.Bucket, query, &result, cc); err != nil {
		return nil, err
	}
	return &result, nil
}

func listBucket(ctx context.Context, op string, ep Endpoint, bucket string, query url.Values, v any, cc *CallContext) error {
	if bucket == "" {
		return configErrorf("%s: bucket is required", op)
	}
	u, err := ep.url(bucket, "", query)
	if err != nil {
		return err
	}
	res, err := Fetch(ctx, FetchInput{Op: op, Method: http.MethodGet, URL: u, Region: ep.Region}, cc)
	if err != nil {
		return err
	}
	if err := ExpectStatus(op, res, http.StatusOK); err != nil {
		return err
	}
	return decodeXML(op, res, v)
}

func setQuery(q url.Values, name, value string) {
	if value != "" {
		q.Set(name, value)
	}
}

// ListBuckets lists every bucket the credentials can see.
func ListBuckets(ctx context.Context, ep Endpoint, cc *CallContext) (*s3types.ListAllMyBucketsResult, error) {
	u, err := ServiceURL(ep.Origin)
	if err != nil {
		return nil, err
	}
	res, err := Fetch(ctx, FetchInput{Op: OpListBuckets, Method: http.MethodGet, URL: u, Region: ep.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpListBuckets, res, http.StatusOK); err != nil {
		return nil, err
	}
	var result s3types.ListAllMyBucketsResult
	if err := decodeXML(OpListBuckets, res, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HeadBucketOpts are the inputs of HeadBucket.
type HeadBucketOpts struct {
	Endpoint
	Bucket string
}

// HeadBucket checks that a bucket exists and is accessible. A missing
// bucket returns a nil response and nil error. The body is already closed.
func HeadBucket(ctx context.Context, opts HeadBucketOpts, cc *CallContext) (*http.Response, error) {
	if opts.Bucket == "" {
		return nil, configErrorf("%s: bucket is required", OpHeadBucket)
	}
	u, err := opts.url(opts.Bucket, "", nil)
	if err != nil {
		return nil, err
	}
	res, err := Fetch(ctx, FetchInput{Op: OpHeadBucket, Method: http.MethodHead, URL: u, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if absent(res) {
		return nil, nil
	}
	if err := ExpectStatus(OpHeadBucket, res, http.StatusOK); err != nil {
		return nil, err
	}
	drainAndClose(res)
	return res, nil
}

// CreateBucketOpts are the inputs of CreateBucket.
type CreateBucketOpts struct {
	Endpoint
	Bucket string
	// Location is sent as the LocationConstraint. R2 reads it as a
	// location hint. Empty sends no body.
	Location string
}

// CreateBucket creates a bucket. The body of the returned response is
// already closed.
func CreateBucket(ctx context.Context, opts CreateBucketOpts, cc *CallContext) (*http.Response, error) {
	if opts.Bucket == "" {
		return nil, configErrorf("%s: bucket is required", OpCreateBucket)
	}
	u, err := opts.url(opts.Bucket, "", nil)
	if err != nil {
		return nil, err
	}

	in := FetchInput{Op: OpCreateBucket, Method: http.MethodPut, URL: u, Region: opts.Region}
	if opts.Location != "" {
		payload, err := marshalXML(s3types.CreateBucketConfiguration{LocationConstraint: opts.Location})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", OpCreateBucket, err)
		}
		in.Body = BufferedBody{Bytes: payload}
		in.Header = http.Header{}
		in.Header.Set(s3consts.ContentType, "application/xml")
	}

	res, err := Fetch(ctx, in, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpCreateBucket, res, http.StatusOK); err != nil {
		return nil, err
	}
	drainAndClose(res)
	return res, nil
}

// DeleteBucketOpts are the inputs of DeleteBucket.
type DeleteBucketOpts struct {
	Endpoint
	Bucket string
}

// DeleteBucket removes an empty bucket. The body of the returned response
// is already closed.
func DeleteBucket(ctx context.Context, opts DeleteBucketOpts, cc *CallContext) (*http.Response, error) {
	if opts.Bucket == "" {
		return nil, configErrorf("%s: bucket is required", OpDeleteBucket)
	}
	u, err := opts.url(opts.Bucket, "", nil)
	if err != nil {
		return nil, err
	}
	res, err := Fetch(ctx, FetchInput{Op: OpDeleteBucket, Method: http.MethodDelete, URL: u, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpDeleteBucket, res, http.StatusNoContent); err != nil {
		return nil, err
	}
	drainAndClose(res)
	return res, nil
}
