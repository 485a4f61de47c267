// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// EncodePath percent-encodes an object key for use as a URL path.
// Each segment is encoded separately with RFC 3986 rules, so slashes stay
// path separators. This is the encoding S3 expects in the canonical URI.
func EncodePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = EncodeRfc3986(segment)
	}
	return strings.Join(segments, "/")
}

// EncodeRfc3986 escapes everything except the unreserved characters.
func EncodeRfc3986(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// canonicalURI returns the already-escaped request path.
// S3 signs the path as sent, without a second round of escaping.
func canonicalURI(u *url.URL) string {
	uri := u.EscapedPath()
	if uri == "" {
		return "/"
	}
	return uri
}

// canonicalQuery sorts the query pairs by key then value, RFC 3986 encoded.
// Keys listed in skip are left out (the signature itself, for presigned URLs).
func canonicalQuery(values url.Values, skip ...string) string {
	type pair struct {
		k string
		v string
	}
	var pairs []pair
outer:
	for k, vs := range values {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		for _, v := range vs {
			pairs = append(pairs, pair{EncodeRfc3986(k), EncodeRfc3986(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k == pairs[j].k {
			return pairs[i].v < pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.k)
		b.WriteByte('=')
		b.WriteString(p.v)
	}
	return b.String()
}

// canonicalHeaders builds the canonical header block and the sorted list of
// header names it covers. When names is nil every header except the ignored
// ones is included; otherwise only the listed ones are.
func canonicalHeaders(host string, header http.Header, names []string) (string, []string) {
	values := make(map[string][]string)
	if names == nil {
		values["host"] = []string{host}
		for k, vs := range header {
			lk := strings.ToLower(k)
			if _, skip := ignoredHeaders[lk]; skip {
				continue
			}
			values[lk] = append(values[lk], vs...)
		}
	} else {
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if name == "host" {
				values[name] = []string{host}
				continue
			}
			if vs := header.Values(name); len(vs) > 0 {
				values[name] = vs
			}
		}
	}

	sorted := make([]string, 0, len(values))
	for name := range values {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		vs := values[name]
		trimmed := make([]string, len(vs))
		for i, v := range vs {
			trimmed[i] = normalizeSpaces(v)
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(trimmed, ","))
		b.WriteByte('\n')
	}
	return b.String(), sorted
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// requestHost returns the host a received request was addressed to.
func requestHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}
	return r.URL.Host
}

// stripDefaultPort drops :80 on http and :443 on https. It is the host both
// Sign and Presign put on the wire and in the signature.
func stripDefaultPort(u *url.URL) string {
	host := u.Host
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}
