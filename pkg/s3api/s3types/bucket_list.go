// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3types

import (
	"encoding/xml"
	"time"
)

// ListAllMyBucketsResult is the ListBuckets response document.
type ListAllMyBucketsResult struct {
	XMLName           xml.Name    `xml:"ListAllMyBucketsResult"`
	Owner             BucketOwner `xml:"Owner"`
	Buckets           BucketList  `xml:"Buckets"`
	ContinuationToken string      `xml:"ContinuationToken,omitempty"`
	Prefix            string      `xml:"Prefix,omitempty"`
}

// BucketOwner is the account that owns the listed buckets.
type BucketOwner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

// BucketList wraps the repeated Bucket elements.
type BucketList struct {
	Buckets []BucketInfo `xml:"Bucket"`
}

// BucketInfo is one listed bucket.
type BucketInfo struct {
	Name         string    `xml:"Name"`
	CreationDate time.Time `xml:"CreationDate"`
	Region       string    `xml:"BucketRegion,omitempty"`
}

// CreateBucketConfiguration is the optional CreateBucket request document.
type CreateBucketConfiguration struct {
	XMLName            xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ CreateBucketConfiguration"`
	LocationConstraint string   `xml:"LocationConstraint,omitempty"`
}
