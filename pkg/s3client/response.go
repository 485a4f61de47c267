// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3err"
)

// maxErrorBodySize bounds how much of an unexpected response is kept.
const maxErrorBodySize = 1 << 20

// ExpectStatus returns nil when res has one of the expected statuses. Any
// other status drains and closes the body and returns *UnexpectedStatusError.
func ExpectStatus(op string, res *http.Response, expected ...int) error {
	if slices.Contains(expected, res.StatusCode) {
		return nil
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
	return &UnexpectedStatusError{
		Op:        op,
		Status:    res.StatusCode,
		Body:      strings.TrimSpace(string(body)),
		RequestID: res.Header.Get(s3consts.XAmzRequestID),
		S3Error:   s3err.ParseError(res.StatusCode, body),
	}
}

// absent reports a 404 and releases the response if so.
func absent(res *http.Response) bool {
	if res.StatusCode != http.StatusNotFound {
		return false
	}
	drainAndClose(res)
	return true
}

// drainAndClose lets the connection be reused.
func drainAndClose(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBodySize))
	_ = res.Body.Close()
}

// decodeXML parses a success document and releases the response.
func decodeXML(op string, res *http.Response, v any) error {
	defer drainAndClose(res)
	if err := xml.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
