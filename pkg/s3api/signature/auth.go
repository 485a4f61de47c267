// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import "github.com/rs/zerolog"

const (
	AuthHeaderV4 = "AWS4-HMAC-SHA256"

	Iso8601BasicFormat = "20060102T150405Z"
	Iso8601DateFormat  = "20060102"

	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// Precomputed SHA256 hash of an empty payload
	HashedEmptyPayload = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// ServiceS3 is the service name in the credential scope
	ServiceS3 = "s3"

	scopeTerminator = "aws4_request"

	// MaxPresignExpiry is the longest validity S3 accepts for a presigned URL.
	MaxPresignExpiry = 7 * 24 * 60 * 60
)

// ignoredHeaders are never part of the signature. They are either rewritten
// by proxies or added by the transport after signing.
var ignoredHeaders = map[string]struct{}{
	"authorization":     {},
	"user-agent":        {},
	"x-amzn-trace-id":   {},
	"expect":            {},
	"transfer-encoding": {},
}

// Credentials is the signing identity.
type Credentials struct {
	AccessKeyID string
	SecretKey   string
}

// String never prints the secret.
func (c Credentials) String() string {
	return "Credentials{AccessKeyID: " + c.AccessKeyID + ", SecretKey: <redacted>}"
}

// MarshalZerologObject logs the access key only.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("access_key", c.AccessKeyID)
}

// Valid reports whether both halves of the identity are present.
func (c Credentials) Valid() bool {
	return c.AccessKeyID != "" && c.SecretKey != ""
}
