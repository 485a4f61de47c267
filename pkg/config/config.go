// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates zapctl profiles.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file base name searched by utils.LoadConfiguration.
const FileName = "zapctl"

var (
	ErrNoProfile        = errors.New("config: no profile")
	ErrAmbiguousProfile = errors.New("config: more than one profile and none is default")
)

var (
	profileNameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,36}$`)
	accountIDRe   = regexp.MustCompile(`^(regex:.*|[0-9a-f]{32})$`)
	apiTokenRe    = regexp.MustCompile(`^[^\s]{10,}$`)
)

// Profile is one set of R2 credentials.
type Profile struct {
	// AccountID is a 32 character hex id, or "regex:<pattern>" for profiles
	// that only name an account family and need an explicit endpoint.
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
	// TokenID skips the token verification round trip when set.
	TokenID  string `mapstructure:"token_id"`
	Endpoint string `mapstructure:"endpoint"`
	Default  bool   `mapstructure:"default"`
}

// Config is the parsed config file.
type Config struct {
	Profiles map[string]Profile `mapstructure:"profiles"`

	// Implicit is built from top level account_id/api_token, which viper
	// also reads from ZAPCTL_ACCOUNT_ID and ZAPCTL_API_TOKEN.
	Implicit *Profile `mapstructure:"-"`
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	accountID, apiToken := v.GetString("account_id"), v.GetString("api_token")
	if accountID != "" || apiToken != "" {
		cfg.Implicit = &Profile{
			AccountID: accountID,
			APIToken:  apiToken,
			TokenID:   v.GetString("token_id"),
			Endpoint:  v.GetString("endpoint"),
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid profile at once.
func (c *Config) Validate() error {
	var errs []error
	for _, name := range c.profileNames() {
		if !ValidProfileName(name) {
			errs = append(errs, fmt.Errorf("bad profile name: %q", name))
		}
		if err := c.Profiles[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profiles.%s: %w", name, err))
		}
	}
	if c.Implicit != nil {
		if err := c.Implicit.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("environment profile: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the account id and token formats.
func (p Profile) Validate() error {
	if !accountIDRe.MatchString(p.AccountID) {
		return fmt.Errorf("bad account_id: %q", p.AccountID)
	}
	if !apiTokenRe.MatchString(p.APIToken) {
		return errors.New("bad api_token")
	}
	return nil
}

// Origin is the S3 endpoint for the profile. An explicit endpoint wins.
func (p Profile) Origin() (string, error) {
	if p.Endpoint != "" {
		return p.Endpoint, nil
	}
	if strings.HasPrefix(p.AccountID, "regex:") {
		return "", fmt.Errorf("account_id %q is a pattern: set an endpoint", p.AccountID)
	}
	return "https://" + p.AccountID + ".r2.cloudflarestorage.com", nil
}

// ValidProfileName reports whether name starts with a lowercase letter,
// ends with a letter or digit and has at most 37 characters of
// [a-z0-9_-].
func ValidProfileName(name string) bool {
	if !profileNameRe.MatchString(name) {
		return false
	}
	last := name[len(name)-1]
	return (last >= 'a' && last <= 'z') || (last >= '0' && last <= '9')
}

// ResolveProfile picks the profile for one invocation. An explicit name must
// exist. Without one, the implicit environment profile is used, then the
// only profile, then the one marked default.
func (c *Config) ResolveProfile(name string) (string, Profile, error) {
	if name != "" {
		p, ok := c.Profiles[name]
		if !ok {
			return "", Profile{}, fmt.Errorf("%w: %q", ErrNoProfile, name)
		}
		return name, p, nil
	}
	if c.Implicit != nil {
		return "", *c.Implicit, nil
	}

	names := c.profileNames()
	switch len(names) {
	case 0:
		return "", Profile{}, ErrNoProfile
	case 1:
		return names[0], c.Profiles[names[0]], nil
	}
	var defaults []string
	for _, n := range names {
		if c.Profiles[n].Default {
			defaults = append(defaults, n)
		}
	}
	if len(defaults) != 1 {
		return "", Profile{}, ErrAmbiguousProfile
	}
	return defaults[0], c.Profiles[defaults[0]], nil
}

func (c *Config) profileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
