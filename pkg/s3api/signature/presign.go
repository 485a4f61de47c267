// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Presign returns a copy of u carrying a query-string signature valid for
// expires. Only the host header is signed and the payload is unsigned, so
// the URL can be handed to any HTTP client. A default port is dropped from
// the returned URL the same way Sign drops it from the Host header.
func (s *Signer) Presign(method string, u *url.URL, expires time.Duration, signTime time.Time) (*url.URL, error) {
	if !s.Credentials.Valid() {
		return nil, ErrMissingCredentials
	}
	if expires <= 0 || expires > MaxPresignExpiry*time.Second {
		return nil, fmt.Errorf("signature: presign expiry %s out of range", expires)
	}

	t := signTime.UTC()
	amzDate := t.Format(Iso8601BasicFormat)
	scope := s.scope(t)

	out := *u
	out.Host = stripDefaultPort(u)
	query := out.Query()
	query.Set("X-Amz-Algorithm", AuthHeaderV4)
	query.Set("X-Amz-Credential", s.Credentials.AccessKeyID+"/"+scope)
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", strconv.FormatInt(int64(expires/time.Second), 10))
	query.Set("X-Amz-SignedHeaders", "host")
	query.Del("X-Amz-Signature")

	canonicalReq := strings.Join([]string{
		method,
		canonicalURI(&out),
		canonicalQuery(query),
		"host:" + out.Host + "\n",
		"host",
		UnsignedPayload,
	}, "\n")

	stringToSign := buildStringToSign(amzDate, scope, canonicalReq)
	signingKey := deriveSigningKey(s.Credentials.SecretKey, t.Format(Iso8601DateFormat), s.Region, s.service())
	query.Set("X-Amz-Signature", calculateSignature(signingKey, stringToSign))

	out.RawQuery = query.Encode()
	return &out, nil
}
