// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"errors"
	"io"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
)

// Body is the payload of a request. The set of variants is closed:
// EmptyBody, BufferedBody and *StreamedBody.
type Body interface {
	// Len is the number of bytes that will be transmitted.
	Len() int64
	isBody()
}

// EmptyBody sends no payload.
type EmptyBody struct{}

func (EmptyBody) Len() int64 { return 0 }
func (EmptyBody) isBody()    {}

// BufferedBody is a payload already held in memory. Its digests are
// computed on demand.
type BufferedBody struct {
	Bytes []byte
}

func (b BufferedBody) Len() int64 { return int64(len(b.Bytes)) }
func (BufferedBody) isBody()      {}

// ContentSHA256 returns the hex SHA-256 of the payload.
func (b BufferedBody) ContentSHA256() string {
	return HashBytes(b.Bytes, HashSHA256)
}

// Checksum returns the integrity checksum of the payload for alg.
func (b BufferedBody) Checksum(alg HashAlgorithm) IntegrityChecksum {
	return IntegrityChecksum{Algorithm: alg, Base64: HashBytes(b.Bytes, alg)}
}

// StreamedBody is a file-backed payload of known length. Its content hash
// is resolved before construction, so signing never has to read it.
type StreamedBody struct {
	open          Opener
	length        int64
	contentSHA256 string
	checksums     []IntegrityChecksum
}

// NewStreamedBody builds a streamed body. contentSHA256 is the hex SHA-256
// of exactly length bytes of the source, or the unsigned payload sentinel.
func NewStreamedBody(open Opener, length int64, contentSHA256 string, checksums ...IntegrityChecksum) (*StreamedBody, error) {
	switch {
	case open == nil:
		return nil, errors.New("streamed body: nil opener")
	case length < 0:
		return nil, errors.New("streamed body: negative length")
	case contentSHA256 == "":
		return nil, errors.New("streamed body: content hash is required")
	}
	return &StreamedBody{
		open:          open,
		length:        length,
		contentSHA256: contentSHA256,
		checksums:     checksums,
	}, nil
}

func (b *StreamedBody) Len() int64 { return b.length }
func (*StreamedBody) isBody()      {}

// Open returns the handle for the transmission pass.
func (b *StreamedBody) Open() (io.ReadCloser, error) { return b.open() }

// ContentSHA256 returns the hash resolved at construction.
func (b *StreamedBody) ContentSHA256() string { return b.contentSHA256 }

// Checksum returns the precomputed checksum for alg, if there is one.
func (b *StreamedBody) Checksum(alg HashAlgorithm) (IntegrityChecksum, bool) {
	for _, c := range b.checksums {
		if c.Algorithm == alg {
			return c, true
		}
	}
	return IntegrityChecksum{}, false
}

// IntegrityChecksum is a base64 digest sent alongside the content hash so
// the service can verify the payload independently of the signature.
type IntegrityChecksum struct {
	Algorithm HashAlgorithm
	Base64    string
}

// Header returns the request header that carries c.
func (c IntegrityChecksum) Header() (name, value string) {
	switch c.Algorithm {
	case HashCRC32:
		return s3consts.XAmzChecksumCRC32, c.Base64
	case HashCRC64NVME:
		return s3consts.XAmzChecksumCRC64NVME, c.Base64
	default:
		return s3consts.ContentMD5, c.Base64
	}
}
