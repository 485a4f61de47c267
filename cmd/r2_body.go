// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/spf13/cobra"
)

func addBodyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("file", "", "Path to the contents")
	f.String("filestream", "", "Path to the contents (streaming upload). \"-\" reads stdin and needs --content_length and --unsigned_payload")
	f.Int64("content_length", -1, "Length of the stdin stream")
	f.String("bytes", "", "Range of local file to upload (e.g. 0-100 or bytes=0-100)")
	f.String("content_md5", "", "Precomputed Content-MD5 of the contents (base64)")
	f.Bool("compute_content_md5", false, "If set, automatically compute Content-MD5 of the contents")
	f.String("checksum_algorithm", "", "Additional integrity checksum: CRC32, CRC64NVME or MD5")
}

// loadBody resolves the body flags. Every conflict is reported before any
// file is opened.
func loadBody(cmd *cobra.Command, env *r2Env) (*s3client.LoadedBody, error) {
	f := cmd.Flags()
	opts := s3client.BodyOptions{}
	opts.File, _ = f.GetString("file")
	opts.Bytes, _ = f.GetString("bytes")
	opts.ContentMD5, _ = f.GetString("content_md5")
	opts.ComputeContentMD5, _ = f.GetBool("compute_content_md5")
	opts.ChecksumAlgorithm, _ = f.GetString("checksum_algorithm")

	filestream, _ := f.GetString("filestream")
	if filestream == "-" {
		length, _ := f.GetInt64("content_length")
		if length < 0 {
			return nil, &s3client.ConfigurationError{Msg: "--filestream - requires --content_length"}
		}
		opts.Stream, opts.StreamLength = cmd.InOrStdin(), length
	} else {
		opts.FileStream = filestream
	}
	return s3client.LoadBody(cmd.Context(), opts, env.CC.UnsignedPayload, nil)
}
