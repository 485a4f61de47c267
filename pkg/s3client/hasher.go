// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"
)

// HashAlgorithm names a digest the pipeline can compute over a body.
type HashAlgorithm int

const (
	// HashSHA256 is the content hash that gets signed. Encoded as lowercase hex.
	HashSHA256 HashAlgorithm = iota
	// HashMD5 backs Content-MD5. Encoded as base64.
	HashMD5
	// HashCRC32 backs x-amz-checksum-crc32. Encoded as base64.
	HashCRC32
	// HashCRC64NVME backs x-amz-checksum-crc64nvme. Encoded as base64.
	HashCRC64NVME
)

// hashCopyBufferSize is the read size of a hashing pass.
const hashCopyBufferSize = 256 << 10

func (a HashAlgorithm) String() string {
	switch a {
	case HashSHA256:
		return "SHA256"
	case HashMD5:
		return s3consts.ChecksumAlgoMD5
	case HashCRC32:
		return s3consts.ChecksumAlgoCRC32
	case HashCRC64NVME:
		return s3consts.ChecksumAlgoCRC64NVME
	}
	return fmt.Sprintf("HashAlgorithm(%d)", int(a))
}

// ParseChecksumAlgorithm parses an integrity checksum name, case-insensitively.
func ParseChecksumAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToUpper(s) {
	case s3consts.ChecksumAlgoMD5:
		return HashMD5, nil
	case s3consts.ChecksumAlgoCRC32:
		return HashCRC32, nil
	case s3consts.ChecksumAlgoCRC64NVME:
		return HashCRC64NVME, nil
	}
	return 0, configErrorf("unsupported checksum algorithm %q", s)
}

// newHasher takes a hasher from the shared pools. The returned func puts
// it back and must be called once the digest has been read.
func (a HashAlgorithm) newHasher() (hash.Hash, func()) {
	switch a {
	case HashMD5:
		h := utils.Md5PoolGetHasher()
		return h, func() { utils.Md5PoolPutHasher(h) }
	case HashCRC32:
		h := utils.Crc32PoolGetHasher()
		return h, func() { utils.Crc32PoolPutHasher(h) }
	case HashCRC64NVME:
		h := utils.Crc64nvmePoolGetHasher()
		return h, func() { utils.Crc64nvmePoolPutHasher(h) }
	default:
		h := utils.Sha256PoolGetHasher()
		return h, func() { utils.Sha256PoolPutHasher(h) }
	}
}

// encode renders a raw digest in the form its header expects.
// hash.Hash32 and hash.Hash64 Sum append big-endian bytes, which is the
// order S3 uses for its CRC checksums.
func (a HashAlgorithm) encode(sum []byte) string {
	if a == HashSHA256 {
		return hex.EncodeToString(sum)
	}
	return base64.StdEncoding.EncodeToString(sum)
}

// Opener returns a fresh handle positioned at the start of a source.
type Opener func() (io.ReadCloser, error)

// HashResult is the outcome of one hashing pass.
type HashResult struct {
	Digest string
	// Bytes is the number of bytes consumed. The source is read to EOF.
	Bytes int64
}

// HashStream consumes the source behind open once, to EOF, and returns its
// digest. The handle is opened and closed inside the call.
func HashStream(ctx context.Context, open Opener, alg HashAlgorithm) (HashResult, error) {
	rc, err := open()
	if err != nil {
		return HashResult{}, fmt.Errorf("open for %s pass: %w", alg, err)
	}
	defer rc.Close()

	h, release := alg.newHasher()
	defer release()

	buf := utils.GetBuffer(hashCopyBufferSize)
	defer utils.PutBuffer(buf)

	n, err := io.CopyBuffer(h, &ctxReader{ctx: ctx, r: rc}, buf)
	if err != nil {
		return HashResult{}, fmt.Errorf("%s pass: %w", alg, err)
	}
	return HashResult{Digest: alg.encode(h.Sum(nil)), Bytes: n}, nil
}

// HashBytes digests an in-memory body.
func HashBytes(b []byte, alg HashAlgorithm) string {
	h, release := alg.newHasher()
	defer release()
	h.Write(b)
	return alg.encode(h.Sum(nil))
}

// ctxReader stops a pass between reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
