// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3action"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3types"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"
)

// Operation names, used in errors, logs and metric labels.
var (
	OpGetObject     = s3action.GetObject.String()
	OpHeadObject    = s3action.HeadObject.String()
	OpPutObject     = s3action.PutObject.String()
	OpUploadPart    = s3action.UploadPart.String()
	OpDeleteObject  = s3action.DeleteObject.String()
	OpDeleteObjects = s3action.DeleteObjects.String()
	OpCopyObject    = s3action.CopyObject.String()
	OpListObjectsV2 = s3action.ListObjectsV2.String()
	OpListObjects   = s3action.ListObjects.String()
	OpListBuckets   = s3action.ListBuckets.String()
	OpHeadBucket    = s3action.HeadBucket.String()
	OpCreateBucket  = s3action.CreateBucket.String()
	OpDeleteBucket  = s3action.DeleteBucket.String()
)

// readStatuses are the successes of a conditional read.
var readStatuses = []int{http.StatusOK, http.StatusPartialContent, http.StatusNotModified}

// Endpoint locates the service a call goes to.
type Endpoint struct {
	Origin   string
	Region   string
	URLStyle URLStyle
}

func (e Endpoint) url(bucket, key string, query url.Values) (*url.URL, error) {
	return BucketURL(AddressInput{
		Origin: e.Origin,
		Bucket: bucket,
		Key:    key,
		Style:  e.URLStyle,
		Query:  query,
	})
}

// Conditions are the standard conditional request headers, passed through
// unchanged.
type Conditions struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   string
	IfUnmodifiedSince string
}

func (c Conditions) apply(h http.Header) {
	setIf(h, s3consts.IfMatch, c.IfMatch)
	setIf(h, s3consts.IfNoneMatch, c.IfNoneMatch)
	setIf(h, s3consts.IfModifiedSince, c.IfModifiedSince)
	setIf(h, s3consts.IfUnmodifiedSince, c.IfUnmodifiedSince)
}

func setIf(h http.Header, name, value string) {
	if value != "" {
		h.Set(name, value)
	}
}

func requireObject(op, bucket, key string) error {
	if bucket == "" || key == "" {
		return configErrorf("%s: bucket and key are required", op)
	}
	return nil
}

func checkPartNumber(op string, n int, required bool) error {
	if n == 0 && !required {
		return nil
	}
	if n < 1 || n > s3consts.MaxPartID {
		return configErrorf("%s: part number %d out of range 1-%d", op, n, s3consts.MaxPartID)
	}
	return nil
}

// ObjectResult is what a write operation reports back.
type ObjectResult struct {
	ETag         string
	VersionID    string
	DeleteMarker bool
	RequestID    string
	Header       http.Header
}

func newObjectResult(res *http.Response) *ObjectResult {
	drainAndClose(res)
	return &ObjectResult{
		ETag:         res.Header.Get(s3consts.ETag),
		VersionID:    res.Header.Get(s3consts.XAmzVersionID),
		DeleteMarker: res.Header.Get(s3consts.XAmzDeleteMarker) == "true",
		RequestID:    res.Header.Get(s3consts.XAmzRequestID),
		Header:       res.Header,
	}
}

// GetObjectOpts are the inputs of GetObject and HeadObject.
type GetObjectOpts struct {
	Endpoint
	Bucket string
	Key    string
	Conditions
	Range      string
	PartNumber int
}

// HeadObjectOpts are the same as GetObjectOpts.
type HeadObjectOpts = GetObjectOpts

// GetObject returns the object response with its body unread. The caller
// closes the body. A missing object returns a nil response and nil error.
func GetObject(ctx context.Context, opts GetObjectOpts, cc *CallContext) (*http.Response, error) {
	return readObject(ctx, OpGetObject, http.MethodGet, opts, cc)
}

// HeadObject is GetObject without a body.
func HeadObject(ctx context.Context, opts HeadObjectOpts, cc *CallContext) (*http.Response, error) {
	return readObject(ctx, OpHeadObject, http.MethodHead, opts, cc)
}

func readObject(ctx context.Context, op, method string, opts GetObjectOpts, cc *CallContext) (*http.Response, error) {
	if err := requireObject(op, opts.Bucket, opts.Key); err != nil {
		return nil, err
	}
	if err := checkPartNumber(op, opts.PartNumber, false); err != nil {
		return nil, err
	}

	var query url.Values
	if opts.PartNumber > 0 {
		query = url.Values{s3consts.QueryPartNumber: {strconv.Itoa(opts.PartNumber)}}
	}
	u, err := opts.url(opts.Bucket, opts.Key, query)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	opts.Conditions.apply(header)
	setIf(header, s3consts.Range, opts.Range)

	res, err := Fetch(ctx, FetchInput{Op: op, Method: method, URL: u, Header: header, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if absent(res) {
		return nil, nil
	}
	if err := ExpectStatus(op, res, readStatuses...); err != nil {
		return nil, err
	}
	return res, nil
}

// PutObjectOpts are the inputs of PutObject.
type PutObjectOpts struct {
	Endpoint
	Bucket string
	Key    string

	Body       Body
	ContentMD5 string
	Checksum   *IntegrityChecksum

	ContentType        string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	Expires            string
	StorageClass       string
	Metadata           map[string]string

	IfMatch     string
	IfNoneMatch string
}

// PutObject uploads a whole object in one request.
func PutObject(ctx context.Context, opts PutObjectOpts, cc *CallContext) (*ObjectResult, error) {
	if err := requireObject(OpPutObject, opts.Bucket, opts.Key); err != nil {
		return nil, err
	}
	if opts.StorageClass != "" {
		if _, err := s3types.ParseStorageClass(opts.StorageClass); err != nil {
			return nil, &ConfigurationError{Msg: OpPutObject, Err: err}
		}
	}
	u, err := opts.url(opts.Bucket, opts.Key, nil)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	setIf(header, s3consts.ContentType, opts.ContentType)
	setIf(header, s3consts.CacheControl, opts.CacheControl)
	setIf(header, s3consts.ContentDisposition, opts.ContentDisposition)
	setIf(header, s3consts.ContentEncoding, opts.ContentEncoding)
	setIf(header, s3consts.ContentLanguage, opts.ContentLanguage)
	setIf(header, s3consts.Expires, opts.Expires)
	setIf(header, s3consts.XAmzStorageClass, opts.StorageClass)
	setIf(header, s3consts.IfMatch, opts.IfMatch)
	setIf(header, s3consts.IfNoneMatch, opts.IfNoneMatch)
	for name, value := range opts.Metadata {
		header.Set(s3consts.XAmzMetaPrefix+name, value)
	}
	setBodyHeaders(header, opts.ContentMD5, opts.Checksum)

	res, err := Fetch(ctx, FetchInput{Op: OpPutObject, Method: http.MethodPut, URL: u, Header: header, Body: opts.Body, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpPutObject, res, http.StatusOK); err != nil {
		return nil, err
	}
	return newObjectResult(res), nil
}

// UploadPartOpts are the inputs of UploadPart.
type UploadPartOpts struct {
	Endpoint
	Bucket     string
	Key        string
	UploadID   string
	PartNumber int

	Body       Body
	ContentMD5 string
	Checksum   *IntegrityChecksum
}

// UploadPart sends one part of an existing multipart upload.
func UploadPart(ctx context.Context, opts UploadPartOpts, cc *CallContext) (*ObjectResult, error) {
	if err := requireObject(OpUploadPart, opts.Bucket, opts.Key); err != nil {
		return nil, err
	}
	if opts.UploadID == "" {
		return nil, configErrorf("%s: upload id is required", OpUploadPart)
	}
	if err := checkPartNumber(OpUploadPart, opts.PartNumber, true); err != nil {
		return nil, err
	}
	u, err := opts.url(opts.Bucket, opts.Key, url.Values{
		s3consts.QueryPartNumber: {strconv.Itoa(opts.PartNumber)},
		s3consts.QueryUploadID:   {opts.UploadID},
	})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	setBodyHeaders(header, opts.ContentMD5, opts.Checksum)

	res, err := Fetch(ctx, FetchInput{Op: OpUploadPart, Method: http.MethodPut, URL: u, Header: header, Body: opts.Body, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpUploadPart, res, http.StatusOK); err != nil {
		return nil, err
	}
	return newObjectResult(res), nil
}

// DeleteObjectOpts are the inputs of DeleteObject.
type DeleteObjectOpts struct {
	Endpoint
	Bucket    string
	Key       string
	VersionID string
}

// DeleteObject removes one object. Deleting a missing key succeeds.
func DeleteObject(ctx context.Context, opts DeleteObjectOpts, cc *CallContext) (*ObjectResult, error) {
	if err := requireObject(OpDeleteObject, opts.Bucket, opts.Key); err != nil {
		return nil, err
	}
	var query url.Values
	if opts.VersionID != "" {
		query = url.Values{s3consts.QueryVersionID: {opts.VersionID}}
	}
	u, err := opts.url(opts.Bucket, opts.Key, query)
	if err != nil {
		return nil, err
	}

	res, err := Fetch(ctx, FetchInput{Op: OpDeleteObject, Method: http.MethodDelete, URL: u, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpDeleteObject, res, http.StatusNoContent); err != nil {
		return nil, err
	}
	return newObjectResult(res), nil
}

// DeleteObjectsOpts are the inputs of DeleteObjects.
type DeleteObjectsOpts struct {
	Endpoint
	Bucket string
	Keys   []string
	Quiet  bool
}

// DeleteObjects removes up to 1000 keys in one request. Per-key failures
// are reported in the result, not as an error.
func DeleteObjects(ctx context.Context, opts DeleteObjectsOpts, cc *CallContext) (*s3types.DeleteObjectsResult, error) {
	if opts.Bucket == "" {
		return nil, configErrorf("%s: bucket is required", OpDeleteObjects)
	}
	if len(opts.Keys) == 0 || len(opts.Keys) > s3consts.MaxDeleteObjects {
		return nil, configErrorf("%s: between 1 and %d keys are required, got %d", OpDeleteObjects, s3consts.MaxDeleteObjects, len(opts.Keys))
	}

	doc := s3types.DeleteObjectsRequest{Quiet: opts.Quiet}
	for _, key := range opts.Keys {
		if key == "" {
			return nil, configErrorf("%s: empty key", OpDeleteObjects)
		}
		doc.Objects = append(doc.Objects, s3types.DeleteObjectEntry{Key: key})
	}
	payload, err := marshalXML(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpDeleteObjects, err)
	}

	u, err := opts.url(opts.Bucket, "", url.Values{s3consts.QueryDelete: {""}})
	if err != nil {
		return nil, err
	}
	body := BufferedBody{Bytes: payload}
	header := http.Header{}
	header.Set(s3consts.ContentType, "application/xml")
	setBodyHeaders(header, HashBytes(payload, HashMD5), nil)

	res, err := Fetch(ctx, FetchInput{Op: OpDeleteObjects, Method: http.MethodPost, URL: u, Header: header, Body: body, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpDeleteObjects, res, http.StatusOK); err != nil {
		return nil, err
	}
	var result s3types.DeleteObjectsResult
	if err := decodeXML(OpDeleteObjects, res, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func marshalXML(v any) ([]byte, error) {
	buf := utils.SyncPoolGetBuffer()
	defer utils.SyncPoolPutBuffer(buf)
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// CopyObjectOpts are the inputs of CopyObject.
type CopyObjectOpts struct {
	Endpoint
	Bucket       string
	Key          string
	SourceBucket string
	SourceKey    string

	// MetadataDirective is COPY (default) or REPLACE.
	MetadataDirective string
	ContentType       string
	Metadata          map[string]string

	SourceIfMatch           string
	SourceIfNoneMatch       string
	SourceIfModifiedSince   string
	SourceIfUnmodifiedSince string
}

// CopyObject copies an object server side. S3 can report a failed copy
// with a 200 status and an <Error> document, which is returned as
// *UnexpectedStatusError like any other failure.
func CopyObject(ctx context.Context, opts CopyObjectOpts, cc *CallContext) (*s3types.CopyObjectResult, error) {
	if err := requireObject(OpCopyObject, opts.Bucket, opts.Key); err != nil {
		return nil, err
	}
	if opts.SourceBucket == "" || opts.SourceKey == "" {
		return nil, configErrorf("%s: source bucket and key are required", OpCopyObject)
	}
	switch opts.MetadataDirective {
	case "", s3consts.MetadataDirectiveCopy, s3consts.MetadataDirectiveReplace:
	default:
		return nil, configErrorf("%s: bad metadata directive %q", OpCopyObject, opts.MetadataDirective)
	}
	u, err := opts.url(opts.Bucket, opts.Key, nil)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(s3consts.XAmzCopySource, copySource(opts.SourceBucket, opts.SourceKey))
	setIf(header, s3consts.XAmzMetadataDirective, opts.MetadataDirective)
	setIf(header, s3consts.ContentType, opts.ContentType)
	for name, value := range opts.Metadata {
		header.Set(s3consts.XAmzMetaPrefix+name, value)
	}
	setIf(header, s3consts.XAmzCopySourceIfMatch, opts.SourceIfMatch)
	setIf(header, s3consts.XAmzCopySourceIfNoneMatch, opts.SourceIfNoneMatch)
	setIf(header, s3consts.XAmzCopySourceIfModifiedSince, opts.SourceIfModifiedSince)
	setIf(header, s3consts.XAmzCopySourceIfUnmodifiedSince, opts.SourceIfUnmodifiedSince)

	res, err := Fetch(ctx, FetchInput{Op: OpCopyObject, Method: http.MethodPut, URL: u, Header: header, Region: opts.Region}, cc)
	if err != nil {
		return nil, err
	}
	if err := ExpectStatus(OpCopyObject, res, http.StatusOK); err != nil {
		return nil, err
	}

	defer res.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
	if err != nil {
		return nil, &TransportError{Op: OpCopyObject, Err: err}
	}
	if s3Err := s3err.ParseError(res.StatusCode, payload); s3Err != nil {
		return nil, &UnexpectedStatusError{
			Op:        OpCopyObject,
			Status:    res.StatusCode,
			Body:      string(payload),
			RequestID: res.Header.Get(s3consts.XAmzRequestID),
			S3Error:   s3Err,
		}
	}
	var result s3types.CopyObjectResult
	if err := xml.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", OpCopyObject, err)
	}
	return &result, nil
}
