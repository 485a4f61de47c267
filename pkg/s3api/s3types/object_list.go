// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3types

import (
	"encoding/xml"
	"time"
)

// ListObjectsResult is the ListObjects (v1) response document.
type ListObjectsResult struct {
	XMLName        xml.Name          `xml:"ListBucketResult"`
	Name           string            `xml:"Name"`
	Prefix         string            `xml:"Prefix"`
	Marker         string            `xml:"Marker,omitempty"`
	Delimiter      string            `xml:"Delimiter,omitempty"`
	MaxKeys        int               `xml:"MaxKeys"`
	IsTruncated    bool              `xml:"IsTruncated"`
	NextMarker     string            `xml:"NextMarker,omitempty"`
	EncodingType   string            `xml:"EncodingType,omitempty"`
	Contents       []ListObjectEntry `xml:"Contents"`
	CommonPrefixes []CommonPrefix    `xml:"CommonPrefixes,omitempty"`
}

// ListObjectsV2Result is the ListObjectsV2 response document.
type ListObjectsV2Result struct {
	XMLName               xml.Name          `xml:"ListBucketResult"`
	Name                  string            `xml:"Name"`
	Prefix                string            `xml:"Prefix"`
	Delimiter             string            `xml:"Delimiter,omitempty"`
	MaxKeys               int               `xml:"MaxKeys"`
	KeyCount              int               `xml:"KeyCount"`
	IsTruncated           bool              `xml:"IsTruncated"`
	Contents              []ListObjectEntry `xml:"Contents"`
	CommonPrefixes        []CommonPrefix    `xml:"CommonPrefixes,omitempty"`
	ContinuationToken     string            `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string            `xml:"NextContinuationToken,omitempty"`
	StartAfter            string            `xml:"StartAfter,omitempty"`
	EncodingType          string            `xml:"EncodingType,omitempty"`
}

// ListObjectEntry is one object in either list version.
type ListObjectEntry struct {
	Key          string       `xml:"Key"`
	LastModified time.Time    `xml:"LastModified"`
	ETag         string       `xml:"ETag"`
	Size         int64        `xml:"Size"`
	StorageClass string       `xml:"StorageClass,omitempty"`
	Owner        *ObjectOwner `xml:"Owner,omitempty"`
}

// ObjectOwner is returned when fetch-owner is requested.
type ObjectOwner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

// CommonPrefix is a rolled up key prefix when a delimiter is set.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}
