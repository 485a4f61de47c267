// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package s3client signs and sends object storage requests to S3-compatible
// services (Cloudflare R2 first) and interprets their responses.
package s3client

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"

	"github.com/rs/zerolog"
)

// RegionAuto is the only region R2 accepts.
const RegionAuto = "auto"

// Credentials is the signing identity used for every call.
type Credentials = signature.Credentials

// DeriveR2Credentials turns a Cloudflare API token into S3 credentials.
// The access key is the token id and the secret is the hex SHA-256 of the
// token value, so the raw token never becomes signing material.
func DeriveR2Credentials(tokenID, apiToken string) Credentials {
	return Credentials{
		AccessKeyID: tokenID,
		SecretKey:   utils.Sha256Hex([]byte(apiToken)),
	}
}

// CallContext carries everything a signed call needs besides its own
// parameters. It is built once per invocation and never modified, so a
// single value can be shared by concurrent calls.
type CallContext struct {
	Credentials     Credentials
	UserAgent       string
	UnsignedPayload bool

	// Verbose logs canonical requests and strings to sign at debug level.
	Verbose bool
	// Logger receives call logs. Nil means the logger in ctx, then the global one.
	Logger *zerolog.Logger
	// HTTPClient sends requests. Nil means DefaultHTTPClient.
	HTTPClient *http.Client
	// Now is the signing clock. Nil means time.Now.
	Now func() time.Time
}

// MarshalZerologObject logs the identity without the secret.
func (cc *CallContext) MarshalZerologObject(e *zerolog.Event) {
	e.Str("access_key", cc.Credentials.AccessKeyID).
		Str("user_agent", cc.UserAgent).
		Bool("unsigned_payload", cc.UnsignedPayload)
}

func (cc *CallContext) logger(ctx context.Context) *zerolog.Logger {
	if cc.Logger != nil {
		return cc.Logger
	}
	return logger.Ctx(ctx)
}

func (cc *CallContext) now() time.Time {
	if cc.Now != nil {
		return cc.Now()
	}
	return time.Now()
}

func (cc *CallContext) httpClient() *http.Client {
	if cc.HTTPClient != nil {
		return cc.HTTPClient
	}
	return DefaultHTTPClient
}

// DefaultHTTPClient is shared by every CallContext without its own client.
// It has no overall timeout: callers bound latency through ctx.
var DefaultHTTPClient = NewHTTPClient(100, nil)

// NewHTTPClient creates a client with a pooled transport. A nil tlsConfig
// uses the system roots.
func NewHTTPClient(maxIdleConns int, tlsConfig *tls.Config) *http.Client {
	if maxIdleConns <= 0 {
		maxIdleConns = 100
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConns / 10, // 10% per host
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig:     tlsConfig,
		},
		// A redirected request would carry a signature for the wrong host.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
