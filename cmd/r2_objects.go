// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func addConditionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("if_match", "", "Only if the etag matches")
	f.String("if_none_match", "", "Only if the etag does not match")
	f.String("if_modified_since", "", "Only if modified since this HTTP date")
	f.String("if_unmodified_since", "", "Only if not modified since this HTTP date")
}

func conditionsFromFlags(cmd *cobra.Command) s3client.Conditions {
	f := cmd.Flags()
	var c s3client.Conditions
	c.IfMatch, _ = f.GetString("if_match")
	c.IfNoneMatch, _ = f.GetString("if_none_match")
	c.IfModifiedSince, _ = f.GetString("if_modified_since")
	c.IfUnmodifiedSince, _ = f.GetString("if_unmodified_since")
	c.IfMatch = surroundWithDoubleQuotesIfNecessary(c.IfMatch)
	c.IfNoneMatch = surroundWithDoubleQuotesIfNecessary(c.IfNoneMatch)
	return c
}

func readObjectOpts(cmd *cobra.Command, env *r2Env, args []string) s3client.GetObjectOpts {
	rng, _ := cmd.Flags().GetString("range")
	partNumber, _ := cmd.Flags().GetInt("part_number")
	return s3client.GetObjectOpts{
		Endpoint:   env.Endpoint,
		Bucket:     args[0],
		Key:        args[1],
		Conditions: conditionsFromFlags(cmd),
		Range:      rng,
		PartNumber: partNumber,
	}
}

func addReadFlags(cmd *cobra.Command) {
	addConditionFlags(cmd)
	cmd.Flags().String("range", "", "Byte range, e.g. bytes=0-99")
	cmd.Flags().Int("part_number", 0, "Part number of a multipart object")
}

func (c *cli) getObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-object <bucket> <key>",
		Short: "Get R2 object for a given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			if output != "" {
				if err := utils.TestWritableFile(filepath.Dir(output)); err != nil {
					return &s3client.ConfigurationError{Msg: "output " + output, Err: err}
				}
			}

			res, err := s3client.GetObject(cmd.Context(), readObjectOpts(cmd, env, args), env.CC)
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("%s/%s: %w", args[0], args[1], s3client.ErrNotFound)
			}
			defer res.Body.Close()
			if env.CC.Verbose {
				writeResponse(cmd.ErrOrStderr(), res)
			}
			if res.StatusCode == http.StatusNotModified {
				fmt.Fprintln(cmd.ErrOrStderr(), "not modified")
				return nil
			}

			start := time.Now()
			var n int64
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if n, err = copyAndClose(f, res.Body); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
			} else if n, err = io.Copy(cmd.OutOrStdout(), res.Body); err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			logger.Ctx(cmd.Context()).Debug().
				Str("size", humanize.IBytes(uint64(n))).
				Dur("took", time.Since(start)).
				Msg("body read")
			return nil
		},
	}
	addReadFlags(cmd)
	cmd.Flags().String("output", "", "Write the body to this file instead of stdout")
	return cmd
}

func (c *cli) headObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "head-object <bucket> <key>",
		Short: "Get R2 object (but not the contents) for a given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			res, err := s3client.HeadObject(cmd.Context(), readObjectOpts(cmd, env, args), env.CC)
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			defer res.Body.Close()
			writeResponse(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addReadFlags(cmd)
	return cmd
}

func (c *cli) putObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put-object <bucket> <key>",
		Short: "Put R2 object for a given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			body, err := loadBody(cmd, env)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			opts := s3client.PutObjectOpts{
				Endpoint:   env.Endpoint,
				Bucket:     args[0],
				Key:        args[1],
				Body:       body.Body,
				ContentMD5: body.ContentMD5,
				Checksum:   body.Checksum,
			}
			opts.ContentType, _ = f.GetString("content_type")
			opts.CacheControl, _ = f.GetString("cache_control")
			opts.ContentDisposition, _ = f.GetString("content_disposition")
			opts.ContentEncoding, _ = f.GetString("content_encoding")
			opts.ContentLanguage, _ = f.GetString("content_language")
			opts.Expires, _ = f.GetString("expires")
			opts.StorageClass, _ = f.GetString("storage_class")
			opts.Metadata, _ = f.GetStringToString("metadata")
			ifMatch, _ := f.GetString("if_match")
			ifNoneMatch, _ := f.GetString("if_none_match")
			opts.IfMatch = surroundWithDoubleQuotesIfNecessary(ifMatch)
			opts.IfNoneMatch = surroundWithDoubleQuotesIfNecessary(ifNoneMatch)

			res, err := s3client.PutObject(cmd.Context(), opts, env.CC)
			if err != nil {
				return err
			}
			writeObjectResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addBodyFlags(cmd)
	f := cmd.Flags()
	f.String("content_type", "", "Content-Type of the object")
	f.String("cache_control", "", "Cache-Control of the object")
	f.String("content_disposition", "", "Content-Disposition of the object")
	f.String("content_encoding", "", "Content-Encoding of the object")
	f.String("content_language", "", "Content-Language of the object")
	f.String("expires", "", "Expires of the object (HTTP date)")
	f.String("storage_class", "", "Storage class, e.g. STANDARD")
	f.StringToString("metadata", nil, "Custom metadata, e.g. --metadata owner=ops,team=storage")
	f.String("if_match", "", "Only write if the current etag matches")
	f.String("if_none_match", "", "Only write if the current etag does not match (* for create only)")
	return cmd
}

func (c *cli) uploadPartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-part <bucket> <key>",
		Short: "Upload a part for an existing multipart upload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			body, err := loadBody(cmd, env)
			if err != nil {
				return err
			}
			uploadID, _ := cmd.Flags().GetString("upload_id")
			partNumber, _ := cmd.Flags().GetInt("part_number")
			res, err := s3client.UploadPart(cmd.Context(), s3client.UploadPartOpts{
				Endpoint:   env.Endpoint,
				Bucket:     args[0],
				Key:        args[1],
				UploadID:   uploadID,
				PartNumber: partNumber,
				Body:       body.Body,
				ContentMD5: body.ContentMD5,
				Checksum:   body.Checksum,
			}, env.CC)
			if err != nil {
				return err
			}
			writeObjectResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addBodyFlags(cmd)
	cmd.Flags().String("upload_id", "", "Id of the multipart upload")
	cmd.Flags().Int("part_number", 0, "Part number (1-10000)")
	return cmd
}

func (c *cli) deleteObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-object <bucket> <key>",
		Short: "Delete R2 object for a given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			versionID, _ := cmd.Flags().GetString("version_id")
			res, err := s3client.DeleteObject(cmd.Context(), s3client.DeleteObjectOpts{
				Endpoint:  env.Endpoint,
				Bucket:    args[0],
				Key:       args[1],
				VersionID: versionID,
			}, env.CC)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
			writeObjectResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().String("version_id", "", "Version to delete")
	return cmd
}

func (c *cli) deleteObjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-objects <bucket> <key>...",
		Short: "Delete R2 objects for the given keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			result, err := s3client.DeleteObjects(cmd.Context(), s3client.DeleteObjectsOpts{
				Endpoint: env.Endpoint,
				Bucket:   args[0],
				Keys:     args[1:],
				Quiet:    quiet,
			}, env.CC)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range result.Deleted {
				fmt.Fprintf(out, "deleted %s\n", d.Key)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "failed %s: %s %s\n", e.Key, e.Code, e.Message)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d of %d keys could not be deleted", len(result.Errors), len(args)-1)
			}
			return nil
		},
	}
	cmd.Flags().Bool("quiet", false, "Only report failures")
	return cmd
}

func (c *cli) copyObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy-object <bucket> <key>",
		Short: "Copy R2 object from a given source bucket and key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			source, _ := f.GetString("source")
			srcBucket, srcKey, ok := strings.Cut(strings.TrimPrefix(source, "/"), "/")
			if !ok || srcBucket == "" || srcKey == "" {
				return &s3client.ConfigurationError{Msg: fmt.Sprintf("bad --source %q: expected bucket/key", source)}
			}
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}

			opts := s3client.CopyObjectOpts{
				Endpoint:     env.Endpoint,
				Bucket:       args[0],
				Key:          args[1],
				SourceBucket: srcBucket,
				SourceKey:    srcKey,
			}
			opts.MetadataDirective, _ = f.GetString("metadata_directive")
			opts.ContentType, _ = f.GetString("content_type")
			opts.Metadata, _ = f.GetStringToString("metadata")
			ifMatch, _ := f.GetString("source_if_match")
			ifNoneMatch, _ := f.GetString("source_if_none_match")
			opts.SourceIfMatch = surroundWithDoubleQuotesIfNecessary(ifMatch)
			opts.SourceIfNoneMatch = surroundWithDoubleQuotesIfNecessary(ifNoneMatch)
			opts.SourceIfModifiedSince, _ = f.GetString("source_if_modified_since")
			opts.SourceIfUnmodifiedSince, _ = f.GetString("source_if_unmodified_since")

			result, err := s3client.CopyObject(cmd.Context(), opts, env.CC)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "etag: %s\nlast modified: %s\n", result.ETag, result.LastModified.UTC().Format(time.RFC3339))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("source", "", "Source object as bucket/key")
	f.String("metadata_directive", "", "COPY (default) or REPLACE")
	f.String("content_type", "", "Content-Type when replacing metadata")
	f.StringToString("metadata", nil, "Custom metadata when replacing metadata")
	f.String("source_if_match", "", "Only copy if the source etag matches")
	f.String("source_if_none_match", "", "Only copy if the source etag does not match")
	f.String("source_if_modified_since", "", "Only copy if the source was modified since this HTTP date")
	f.String("source_if_unmodified_since", "", "Only copy if the source was not modified since this HTTP date")
	return cmd
}
