// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3types"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/dustin/go-humanize"
)

// copyAndClose copies r into wc and always closes wc. A failed close is
// reported when the copy itself succeeded.
func copyAndClose(wc io.WriteCloser, r io.Reader) (int64, error) {
	n, err := io.Copy(wc, r)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// writeResponse prints the status line and the headers in name order.
func writeResponse(w io.Writer, res *http.Response) {
	fmt.Fprintf(w, "%s %s\n", res.Proto, res.Status)
	for _, name := range slices.Sorted(maps.Keys(res.Header)) {
		fmt.Fprintf(w, "%s: %s\n", name, strings.Join(res.Header[name], ", "))
	}
}

func writeObjectResult(w io.Writer, r *s3client.ObjectResult) {
	if r.ETag != "" {
		fmt.Fprintf(w, "etag: %s\n", r.ETag)
	}
	if r.VersionID != "" {
		fmt.Fprintf(w, "version: %s\n", r.VersionID)
	}
	if r.DeleteMarker {
		fmt.Fprintln(w, "delete marker: true")
	}
}

func writeEntries(w io.Writer, entries []s3types.ListObjectEntry, prefixes []s3types.CommonPrefix) {
	for _, p := range prefixes {
		fmt.Fprintf(w, "%20s %10s  %s\n", "", "PRE", p.Prefix)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%20s %10s  %s\n", e.LastModified.UTC().Format(time.RFC3339), humanize.IBytes(uint64(e.Size)), e.Key)
	}
}
