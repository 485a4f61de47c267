// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileSystem is the local file access the body loader needs.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
	// ReadRange reads [start, end) clamped to the file size. A negative end
	// means EOF. A start at or past EOF yields no bytes.
	ReadRange(name string, start, end int64) ([]byte, error)
}

// LocalFS is the os-backed FileSystem.
type LocalFS struct{}

var _ FileSystem = LocalFS{}

func (LocalFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (LocalFS) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (LocalFS) ReadRange(name string, start, end int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", name)
	}

	size := info.Size()
	if end < 0 || end > size {
		end = size
	}
	if start >= end {
		return []byte{}, nil
	}

	buf := make([]byte, end-start)
	n, err := f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
