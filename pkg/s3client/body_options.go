// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"

	"github.com/dustin/go-humanize"
)

// BodyOptions describes where a request body comes from. Exactly one of
// File, FileStream or Stream must be set.
type BodyOptions struct {
	// File is read into memory, optionally limited by Bytes.
	File string
	// FileStream is sent from disk without buffering.
	FileStream string
	// Stream is an already opened source of StreamLength bytes. It can be
	// read once, so it is only accepted with an unsigned payload.
	Stream       io.Reader
	StreamLength int64

	// Bytes limits File to a range: "START-END" or "START-", optionally
	// prefixed with "bytes=".
	Bytes string

	// ContentMD5 is a caller supplied base64 MD5, sent as is.
	ContentMD5 string
	// ComputeContentMD5 computes Content-MD5 from the body.
	ComputeContentMD5 bool
	// ChecksumAlgorithm adds an x-amz-checksum-* header: CRC32 or CRC64NVME.
	ChecksumAlgorithm string
}

// LoadedBody is a resolved body plus the digests computed for it.
type LoadedBody struct {
	Body       Body
	ContentMD5 string
	Checksum   *IntegrityChecksum
	Prep       time.Duration
}

// bodyPlan is the validated form of BodyOptions.
type bodyPlan struct {
	rangeStart  int64
	rangeEnd    int64 // exclusive, -1 for EOF
	computeMD5  bool
	checksumAlg HashAlgorithm
	hasChecksum bool
}

var byteRangeRe = regexp.MustCompile(`^(?:bytes=)?(\d+)-(\d*)$`)

// ParseByteRange parses "START-END" or "START-", with or without a leading
// "bytes=". end is -1 when open ended. Both bounds are inclusive.
func ParseByteRange(s string) (start, end int64, err error) {
	m := byteRangeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, configErrorf("bad byte range %q: expected START-END", s)
	}
	start, err = strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, configErrorf("bad byte range %q: %v", s, err)
	}
	if m[2] == "" {
		return start, -1, nil
	}
	end, err = strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, configErrorf("bad byte range %q: %v", s, err)
	}
	if start > end {
		return 0, 0, configErrorf("bad byte range %q: start is after end", s)
	}
	return start, end, nil
}

// validate checks every option combination without touching the source.
func (o BodyOptions) validate(unsignedPayload bool) (bodyPlan, error) {
	plan := bodyPlan{rangeEnd: -1, computeMD5: o.ComputeContentMD5}

	sources := 0
	for _, set := range []bool{o.File != "", o.FileStream != "", o.Stream != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return plan, configErrorf("exactly one of file, filestream or stream is required")
	}

	if o.ChecksumAlgorithm != "" {
		alg, err := ParseChecksumAlgorithm(o.ChecksumAlgorithm)
		if err != nil {
			return plan, err
		}
		if alg == HashMD5 {
			plan.computeMD5 = true
		} else {
			plan.checksumAlg, plan.hasChecksum = alg, true
		}
	}

	if o.ContentMD5 != "" {
		if plan.computeMD5 {
			return plan, configErrorf("content md5 given and requested to be computed")
		}
		raw, err := base64.StdEncoding.DecodeString(o.ContentMD5)
		if err != nil || len(raw) != md5.Size {
			return plan, configErrorf("content md5 %q is not a base64 md5 digest", o.ContentMD5)
		}
	}

	if o.Bytes != "" {
		if o.File == "" {
			return plan, configErrorf("bytes is only supported with file")
		}
		start, end, err := ParseByteRange(o.Bytes)
		if err != nil {
			return plan, err
		}
		plan.rangeStart = start
		if end >= 0 {
			plan.rangeEnd = end + 1
		}
	}

	if o.Stream != nil {
		if o.StreamLength < 0 {
			return plan, configErrorf("stream length must not be negative")
		}
		if !unsignedPayload {
			return plan, configErrorf("a stream cannot be hashed before sending: use an unsigned payload")
		}
		if plan.computeMD5 || plan.hasChecksum {
			return plan, configErrorf("a stream cannot be read twice to compute a checksum")
		}
	}
	return plan, nil
}

// LoadBody resolves opts into a Body. Every option conflict is reported
// before fsys is touched. File sources are read in memory. FileStream
// sources are hashed with one pass per digest and each pass opens its own
// handle, so a 3-pass upload opens the file three times in total.
func LoadBody(ctx context.Context, opts BodyOptions, unsignedPayload bool, fsys FileSystem) (*LoadedBody, error) {
	plan, err := opts.validate(unsignedPayload)
	if err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = LocalFS{}
	}

	start := time.Now()
	var loaded *LoadedBody
	switch {
	case opts.File != "":
		loaded, err = loadBuffered(opts.File, plan, fsys)
	case opts.FileStream != "":
		loaded, err = loadStreamed(ctx, opts.FileStream, plan, unsignedPayload, fsys)
	default:
		loaded, err = loadReader(opts.Stream, opts.StreamLength)
	}
	if err != nil {
		return nil, err
	}
	if opts.ContentMD5 != "" {
		loaded.ContentMD5 = opts.ContentMD5
	}

	loaded.Prep = time.Since(start)
	bodyPrepDuration.Observe(loaded.Prep.Seconds())
	logger.Ctx(ctx).Debug().
		Str("size", humanize.IBytes(uint64(loaded.Body.Len()))).
		Bool("content_md5", loaded.ContentMD5 != "").
		Dur("took", loaded.Prep).
		Msg("prep took")
	return loaded, nil
}

func loadBuffered(name string, plan bodyPlan, fsys FileSystem) (*LoadedBody, error) {
	data, err := fsys.ReadRange(name, plan.rangeStart, plan.rangeEnd)
	if err != nil {
		return nil, &ConfigurationError{Msg: "file " + name, Err: err}
	}
	body := BufferedBody{Bytes: data}
	loaded := &LoadedBody{Body: body}
	if plan.computeMD5 {
		loaded.ContentMD5 = HashBytes(data, HashMD5)
	}
	if plan.hasChecksum {
		c := body.Checksum(plan.checksumAlg)
		loaded.Checksum = &c
	}
	return loaded, nil
}

func loadStreamed(ctx context.Context, name string, plan bodyPlan, unsignedPayload bool, fsys FileSystem) (*LoadedBody, error) {
	info, err := fsys.Stat(name)
	if err != nil {
		return nil, &ConfigurationError{Msg: "filestream " + name, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, configErrorf("filestream %s: not a regular file", name)
	}
	length := info.Size()
	open := func() (io.ReadCloser, error) { return fsys.Open(name) }

	pass := func(alg HashAlgorithm) (string, error) {
		res, err := HashStream(ctx, open, alg)
		if err != nil {
			return "", fmt.Errorf("filestream %s: %w", name, err)
		}
		if res.Bytes != length {
			return "", fmt.Errorf("filestream %s: read %d bytes during %s pass, expected %d", name, res.Bytes, alg, length)
		}
		return res.Digest, nil
	}

	contentSHA256 := signature.UnsignedPayload
	if !unsignedPayload {
		if contentSHA256, err = pass(HashSHA256); err != nil {
			return nil, err
		}
	}

	var checksums []IntegrityChecksum
	for _, alg := range plan.streamChecksums() {
		digest, err := pass(alg)
		if err != nil {
			return nil, err
		}
		checksums = append(checksums, IntegrityChecksum{Algorithm: alg, Base64: digest})
	}

	body, err := NewStreamedBody(open, length, contentSHA256, checksums...)
	if err != nil {
		return nil, err
	}
	loaded := &LoadedBody{Body: body}
	if plan.computeMD5 {
		c, ok := body.Checksum(HashMD5)
		if !ok {
			return nil, configErrorf("filestream %s: content md5 not available", name)
		}
		loaded.ContentMD5 = c.Base64
	}
	if plan.hasChecksum {
		if c, ok := body.Checksum(plan.checksumAlg); ok {
			loaded.Checksum = &c
		}
	}
	return loaded, nil
}

func (p bodyPlan) streamChecksums() []HashAlgorithm {
	var algs []HashAlgorithm
	if p.computeMD5 {
		algs = append(algs, HashMD5)
	}
	if p.hasChecksum {
		algs = append(algs, p.checksumAlg)
	}
	return algs
}

var errStreamConsumed = errors.New("stream already consumed")

func loadReader(r io.Reader, length int64) (*LoadedBody, error) {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	used := false
	open := func() (io.ReadCloser, error) {
		if used {
			return nil, errStreamConsumed
		}
		used = true
		return rc, nil
	}
	body, err := NewStreamedBody(open, length, signature.UnsignedPayload)
	if err != nil {
		return nil, err
	}
	return &LoadedBody{Body: body}, nil
}
