//go:build integration

package testutil

import (
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"
)

// Target is the S3 compatible service under test. With ZAPCTL_IT_TOKEN_ID
// and ZAPCTL_IT_API_TOKEN set, the keys are derived the way R2 derives them
// from an API token.
type Target struct {
	Origin          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	URLStyle        s3client.URLStyle
}

// DefaultTarget reads the target from the environment. The defaults match a
// local MinIO.
func DefaultTarget() Target {
	t := Target{
		Origin:          GetEnv("ZAPCTL_IT_ENDPOINT", "http://localhost:9000"),
		Region:          GetEnv("ZAPCTL_IT_REGION", "us-east-1"),
		AccessKeyID:     GetEnv("ZAPCTL_IT_ACCESS_KEY_ID", "minioadmin"),
		SecretAccessKey: GetEnv("ZAPCTL_IT_SECRET_ACCESS_KEY", "minioadmin"),
		Bucket:          GetEnv("ZAPCTL_IT_BUCKET", ""),
		URLStyle:        s3client.URLStyle(GetEnv("ZAPCTL_IT_URL_STYLE", string(s3client.URLStylePath))),
	}
	tokenID, apiToken := GetEnv("ZAPCTL_IT_TOKEN_ID", ""), GetEnv("ZAPCTL_IT_API_TOKEN", "")
	if tokenID != "" && apiToken != "" {
		creds := s3client.DeriveR2Credentials(tokenID, apiToken)
		t.AccessKeyID, t.SecretAccessKey = creds.AccessKeyID, creds.SecretKey
	}
	return t
}

// Endpoint is the target as zapctl addresses it.
func (t Target) Endpoint() s3client.Endpoint {
	return s3client.Endpoint{Origin: t.Origin, Region: t.Region, URLStyle: t.URLStyle}
}

// CallContext signs with the target's keys.
func (t Target) CallContext(unsigned bool) *s3client.CallContext {
	return &s3client.CallContext{
		Credentials:     s3client.Credentials{AccessKeyID: t.AccessKeyID, SecretKey: t.SecretAccessKey},
		UserAgent:       "zapctl-integration",
		UnsignedPayload: unsigned,
	}
}
