// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
	s3utils "github.com/LeeDigitalWorks/zapctl/pkg/s3api/utils"
)

// URLStyle selects where the bucket name goes in a request URL.
type URLStyle string

const (
	// URLStylePath puts the bucket in the path: https://host/bucket/key
	URLStylePath URLStyle = "path"
	// URLStyleVirtualHost puts the bucket in the host: https://bucket.host/key
	URLStyleVirtualHost URLStyle = "vhost"
)

// ParseURLStyle accepts "path", "vhost" or "" (path).
func ParseURLStyle(s string) (URLStyle, error) {
	switch URLStyle(strings.ToLower(s)) {
	case "", URLStylePath:
		return URLStylePath, nil
	case URLStyleVirtualHost:
		return URLStyleVirtualHost, nil
	}
	return "", configErrorf("bad url style %q: expected path or vhost", s)
}

// AddressInput names an object or bucket on a service.
type AddressInput struct {
	Origin string
	Bucket string
	// Key is optional. Empty addresses the bucket itself.
	Key   string
	Style URLStyle
	Query url.Values
}

// BucketURL resolves in to a request URL. It is a pure function: the same
// input always gives the same URL, and the key is encoded identically in
// both styles.
func BucketURL(in AddressInput) (*url.URL, error) {
	origin, err := url.Parse(in.Origin)
	if err != nil {
		return nil, configErrorf("bad origin %q: %v", in.Origin, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, configErrorf("bad origin %q: expected scheme://host", in.Origin)
	}
	if in.Bucket == "" {
		return nil, configErrorf("bucket name is required")
	}

	u := &url.URL{
		Scheme: origin.Scheme,
		User:   origin.User,
		Host:   origin.Host,
	}
	basePath := strings.TrimSuffix(origin.Path, "/")
	baseRaw := strings.TrimSuffix(origin.EscapedPath(), "/")

	switch in.Style {
	case "", URLStylePath:
		basePath += "/" + in.Bucket
		baseRaw += "/" + signature.EncodeRfc3986(in.Bucket)
	case URLStyleVirtualHost:
		if err := s3utils.ValidateBucketName(in.Bucket); err != nil {
			return nil, &ConfigurationError{Msg: "virtual host address", Err: err}
		}
		u.Host = in.Bucket + "." + origin.Host
	default:
		return nil, configErrorf("bad url style %q", in.Style)
	}

	if in.Key != "" {
		basePath += "/" + in.Key
		baseRaw += "/" + signature.EncodePath(in.Key)
	}
	if basePath == "" {
		basePath, baseRaw = "/", "/"
	}
	u.Path = basePath
	if baseRaw != basePath {
		u.RawPath = baseRaw
	}

	if len(in.Query) > 0 {
		u.RawQuery = in.Query.Encode()
	}
	return u, nil
}

// ServiceURL resolves the service root, used by ListBuckets.
func ServiceURL(origin string) (*url.URL, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, configErrorf("bad origin %q: %v", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, configErrorf("bad origin %q: expected scheme://host", origin)
	}
	return &url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: "/"}, nil
}

func (s URLStyle) String() string {
	if s == "" {
		return string(URLStylePath)
	}
	return string(s)
}

// copySource formats the x-amz-copy-source value: /bucket/key with the key
// escaped like a request path.
func copySource(bucket, key string) string {
	return fmt.Sprintf("/%s/%s", signature.EncodeRfc3986(bucket), signature.EncodePath(key))
}
