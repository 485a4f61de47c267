// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"strings"

	"github.com/LeeDigitalWorks/zapctl/pkg/cfapi"
	"github.com/LeeDigitalWorks/zapctl/pkg/config"
	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"

	"github.com/spf13/cobra"
)

func (c *cli) r2Command() *cobra.Command {
	r2 := &cobra.Command{
		Use:   "r2",
		Short: "Manage R2 storage using the S3 compatibility API",
	}

	f := r2.PersistentFlags()
	f.Bool("unsigned_payload", false, "If set, skip request body signing (and thus verification) for the R2 request")
	f.String("endpoint", "", "S3 origin (default https://<account_id>.r2.cloudflarestorage.com)")
	f.String("region", s3client.RegionAuto, "Signing region")
	f.String("url_style", string(s3client.URLStylePath), "Bucket addressing: path or vhost")
	f.String("api_url", cfapi.DefaultBaseURL, "Cloudflare API origin used to look up the token id")
	f.String("ca_file", "", "CA certificate to verify the endpoint (uses system CA if empty)")
	f.String("cert_file", "", "Client certificate for mTLS")
	f.String("key_file", "", "Client key for mTLS")

	r2.AddCommand(
		c.listBucketsCmd(),
		c.headBucketCmd(),
		c.createBucketCmd(),
		c.deleteBucketCmd(),
		c.listObjectsCmd(),
		c.listObjectsV1Cmd(),
		c.getObjectCmd(),
		c.headObjectCmd(),
		c.putObjectCmd(),
		c.uploadPartCmd(),
		c.deleteObjectCmd(),
		c.deleteObjectsCmd(),
		c.copyObjectCmd(),
		c.presignCmd(),
	)
	return r2
}

// r2Env is what every r2 subcommand needs to make calls.
type r2Env struct {
	Endpoint s3client.Endpoint
	CC       *s3client.CallContext
}

// loadR2 resolves the profile into credentials and an endpoint. Nothing is
// sent to the storage service.
func (c *cli) loadR2(cmd *cobra.Command) (*r2Env, error) {
	ctx := cmd.Context()
	fl := c.flags(cmd)
	log := logger.Ctx(ctx)

	cfg, err := config.Load(c.v)
	if err != nil {
		return nil, &s3client.ConfigurationError{Msg: "config", Err: err}
	}
	name, profile, err := cfg.ResolveProfile(fl.String("profile"))
	if err != nil {
		return nil, &s3client.ConfigurationError{Msg: "profile", Err: err}
	}

	origin := fl.String("endpoint")
	if origin == "" {
		if origin, err = profile.Origin(); err != nil {
			return nil, &s3client.ConfigurationError{Msg: "profile " + name, Err: err}
		}
	}
	style, err := s3client.ParseURLStyle(fl.String("url_style"))
	if err != nil {
		return nil, err
	}

	httpClient := c.httpClient
	if httpClient == nil {
		tlsConfig, err := utils.LoadClientTLSConfig(fl.String("cert_file"), fl.String("key_file"), fl.String("ca_file"))
		if err != nil {
			return nil, &s3client.ConfigurationError{Msg: "tls", Err: err}
		}
		if tlsConfig != nil {
			httpClient = s3client.NewHTTPClient(10, tlsConfig)
		}
	}

	tokenID := profile.TokenID
	if tokenID == "" {
		api := &cfapi.Client{BaseURL: fl.String("api_url"), UserAgent: userAgent(), HTTPClient: httpClient}
		info, err := api.VerifyToken(ctx, profile.APIToken)
		if err != nil {
			return nil, err
		}
		tokenID = info.ID
	}

	cc := &s3client.CallContext{
		Credentials:     s3client.DeriveR2Credentials(tokenID, profile.APIToken),
		UserAgent:       userAgent(),
		UnsignedPayload: fl.Bool("unsigned_payload"),
		Verbose:         fl.Bool("verbose"),
		Logger:          log,
		HTTPClient:      httpClient,
		Now:             c.now,
	}
	env := &r2Env{
		Endpoint: s3client.Endpoint{Origin: origin, Region: fl.String("region"), URLStyle: style},
		CC:       cc,
	}
	log.Debug().
		Str("profile", name).
		Str("origin", origin).
		Stringer("url_style", style).
		Object("call", cc).
		Msg("r2 options")
	return env, nil
}

// surroundWithDoubleQuotesIfNecessary turns a bare etag into the quoted form
// S3 compares against. The wildcard is left alone.
func surroundWithDoubleQuotesIfNecessary(value string) string {
	if value == "" || value == "*" {
		return value
	}
	if !strings.HasPrefix(value, `"`) {
		value = `"` + value
	}
	if !strings.HasSuffix(value, `"`) || len(value) == 1 {
		value += `"`
	}
	return value
}
