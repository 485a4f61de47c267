// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3consts

// http://docs.aws.amazon.com/AmazonS3/latest/dev/UploadingObjects.html
const (
	// MaxObjectSize is the maximum object size per PUT request (5GiB)
	MaxObjectSize = 1024 * 1024 * 1024 * 5
	// MaxPartID is the maximum Part ID for multipart upload (10000)
	// Acceptable values range from 1 to 10000 inclusive
	MaxPartID = 10000
	// MaxDeleteObjects is the maximum number of keys in one DeleteObjects call
	MaxDeleteObjects = 1000

	// --- Core request / tracing ---
	XAmzDate      = "x-amz-date"
	XAmzRequestID = "x-amz-request-id"
	XAmzId2       = "x-amz-id-2"

	// --- Content / payload ---
	XAmzContentSHA256 = "x-amz-content-sha256"

	// --- Metadata ---
	XAmzMetaPrefix = "x-amz-meta-"

	// --- Storage class ---
	XAmzStorageClass = "x-amz-storage-class"

	// --- Copy source ---
	XAmzCopySource                  = "x-amz-copy-source"
	XAmzCopySourceRange             = "x-amz-copy-source-range"
	XAmzCopySourceIfMatch           = "x-amz-copy-source-if-match"
	XAmzCopySourceIfNoneMatch       = "x-amz-copy-source-if-none-match"
	XAmzCopySourceIfModifiedSince   = "x-amz-copy-source-if-modified-since"
	XAmzCopySourceIfUnmodifiedSince = "x-amz-copy-source-if-unmodified-since"
	XAmzMetadataDirective           = "x-amz-metadata-directive"

	// --- Versioning ---
	XAmzVersionID    = "x-amz-version-id"
	XAmzDeleteMarker = "x-amz-delete-marker"

	// --- Checksum (newer S3) ---
	XAmzChecksumCRC32     = "x-amz-checksum-crc32"
	XAmzChecksumCRC64NVME = "x-amz-checksum-crc64nvme"
)

// Standard HTTP headers used on object requests
const (
	ContentMD5         = "Content-MD5"
	ContentType        = "Content-Type"
	ContentLength      = "Content-Length"
	CacheControl       = "Cache-Control"
	ContentDisposition = "Content-Disposition"
	ContentEncoding    = "Content-Encoding"
	ContentLanguage    = "Content-Language"
	Expires            = "Expires"
	ETag               = "ETag"
	LastModified       = "Last-Modified"
	UserAgent          = "User-Agent"

	IfMatch           = "If-Match"
	IfNoneMatch       = "If-None-Match"
	IfModifiedSince   = "If-Modified-Since"
	IfUnmodifiedSince = "If-Unmodified-Since"
	Range             = "Range"
)

// Query parameters
const (
	QueryPartNumber        = "partNumber"
	QueryUploadID          = "uploadId"
	QueryListType          = "list-type"
	QueryPrefix            = "prefix"
	QueryDelimiter         = "delimiter"
	QueryMaxKeys           = "max-keys"
	QueryContinuationToken = "continuation-token"
	QueryStartAfter        = "start-after"
	QueryMarker            = "marker"
	QueryEncodingType      = "encoding-type"
	QueryDelete            = "delete"
	QueryVersionID         = "versionId"
)

// Metadata directive values
const (
	MetadataDirectiveCopy    = "COPY"
	MetadataDirectiveReplace = "REPLACE"
)

// Checksum algorithm values
const (
	ChecksumAlgoMD5       = "MD5"
	ChecksumAlgoCRC32     = "CRC32"
	ChecksumAlgoCRC64NVME = "CRC64NVME"
)
