// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
)

// FetchInput is one request before signing.
type FetchInput struct {
	// Op names the operation in errors, logs and metrics.
	Op     string
	Method string
	URL    *url.URL
	// Header is copied, never modified.
	Header http.Header
	// Body defaults to EmptyBody.
	Body   Body
	Region string
}

// Fetch signs and sends one request and returns the raw response. It never
// retries: a retry would need a new timestamp and signature. A failure to
// get any response is returned as *TransportError.
func Fetch(ctx context.Context, in FetchInput, cc *CallContext) (*http.Response, error) {
	if cc == nil {
		return nil, configErrorf("%s: missing call context", in.Op)
	}
	if in.URL == nil {
		return nil, configErrorf("%s: missing url", in.Op)
	}
	body := in.Body
	if body == nil {
		body = EmptyBody{}
	}
	region := in.Region
	if region == "" {
		region = RegionAuto
	}
	log := cc.logger(ctx)

	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", in.Op, err)
	}
	for name, values := range in.Header {
		req.Header[name] = append([]string(nil), values...)
	}
	if cc.UserAgent != "" {
		req.Header.Set(s3consts.UserAgent, cc.UserAgent)
	}

	signed, err := signature.NewSigner(cc.Credentials, region).Sign(req, payloadHash(body, cc.UnsignedPayload), cc.now())
	if err != nil {
		return nil, fmt.Errorf("%s: sign: %w", in.Op, err)
	}
	if cc.Verbose {
		log.Debug().
			Str("op", in.Op).
			Str("canonical_request", signed.CanonicalRequest).
			Str("string_to_sign", signed.StringToSign).
			Msg("signed request")
	}

	if err := attachBody(req, body); err != nil {
		return nil, fmt.Errorf("%s: %w", in.Op, err)
	}

	start := time.Now()
	res, err := cc.httpClient().Do(req)
	took := time.Since(start)
	if err != nil {
		observeRequest(in.Op, 0, took)
		log.Debug().Err(err).Str("op", in.Op).Dur("took", took).Msg("request failed")
		return nil, &TransportError{Op: in.Op, Err: err}
	}
	observeRequest(in.Op, res.StatusCode, took)
	log.Debug().
		Str("op", in.Op).
		Str("method", in.Method).
		Str("url", req.URL.Redacted()).
		Int("status", res.StatusCode).
		Dur("took", took).
		Msg("response")
	return res, nil
}

// payloadHash is the x-amz-content-sha256 value for body.
func payloadHash(body Body, unsigned bool) string {
	if unsigned {
		return signature.UnsignedPayload
	}
	switch b := body.(type) {
	case BufferedBody:
		return b.ContentSHA256()
	case *StreamedBody:
		return b.ContentSHA256()
	default:
		return signature.HashedEmptyPayload
	}
}

// attachBody sets the request body after signing. A streamed body opens
// its transmission handle here and sends exactly Len bytes of it.
func attachBody(req *http.Request, body Body) error {
	switch b := body.(type) {
	case BufferedBody:
		if len(b.Bytes) == 0 {
			return nil
		}
		req.Body = io.NopCloser(bytes.NewReader(b.Bytes))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b.Bytes)), nil
		}
		req.ContentLength = int64(len(b.Bytes))
	case *StreamedBody:
		if b.Len() == 0 {
			return nil
		}
		rc, err := b.Open()
		if err != nil {
			return fmt.Errorf("open body: %w", err)
		}
		req.Body = &limitedReadCloser{Reader: io.LimitReader(rc, b.Len()), Closer: rc}
		req.ContentLength = b.Len()
	}
	return nil
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// setBodyHeaders adds the integrity headers that accompany a loaded body.
func setBodyHeaders(h http.Header, contentMD5 string, checksum *IntegrityChecksum) {
	if contentMD5 != "" {
		h.Set(s3consts.ContentMD5, contentMD5)
	}
	if checksum != nil {
		name, value := checksum.Header()
		h.Set(name, value)
	}
}
