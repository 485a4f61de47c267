// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidBucketName is wrapped by every ValidateBucketName failure.
var ErrInvalidBucketName = errors.New("invalid bucket name")

var (
	reservedPrefixes = []string{"xn--", "sthree-", "amzn-s3-demo-"}
	reservedSuffixes = []string{"-s3alias", "--ol-s3", ".mrap", "--x-s3", "--table-s3"}
)

// ValidateBucketName checks that name can be used as a DNS label in a
// virtual host style address.
func ValidateBucketName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return invalidBucket(name, "empty")
	case len(name) < 3 || len(name) > 63:
		return invalidBucket(name, "length must be between 3 and 63 characters")
	case net.ParseIP(name) != nil:
		return invalidBucket(name, "formatted as an IP address")
	case strings.Contains(name, ".."):
		return invalidBucket(name, "consecutive periods")
	}
	for _, edge := range []byte{name[0], name[len(name)-1]} {
		if edge == '.' || edge == '-' {
			return invalidBucket(name, "must start and end with a letter or digit")
		}
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			return invalidBucket(name, "reserved prefix "+p)
		}
	}
	for _, s := range reservedSuffixes {
		if strings.HasSuffix(name, s) {
			return invalidBucket(name, "reserved suffix "+s)
		}
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' && c != '.' {
			return invalidBucket(name, fmt.Sprintf("character %q", c))
		}
	}
	return nil
}

func invalidBucket(name, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidBucketName, name, reason)
}
