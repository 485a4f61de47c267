// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/spf13/cobra"
)

func (c *cli) listBucketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-buckets",
		Short: "List all R2 buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			result, err := s3client.ListBuckets(cmd.Context(), env.Endpoint, env.CC)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range result.Buckets.Buckets {
				fmt.Fprintf(out, "%20s  %s\n", b.CreationDate.UTC().Format(time.RFC3339), b.Name)
			}
			return nil
		},
	}
}

func (c *cli) headBucketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "head-bucket <bucket>",
		Short: "Determine if an R2 bucket exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			res, err := s3client.HeadBucket(cmd.Context(), s3client.HeadBucketOpts{Endpoint: env.Endpoint, Bucket: args[0]}, env.CC)
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			writeResponse(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func (c *cli) createBucketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-bucket <bucket>",
		Short: "Create a new R2 bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			location, _ := cmd.Flags().GetString("location")
			res, err := s3client.CreateBucket(cmd.Context(), s3client.CreateBucketOpts{
				Endpoint: env.Endpoint,
				Bucket:   args[0],
				Location: location,
			}, env.CC)
			if err != nil {
				return err
			}
			writeResponse(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().String("location", "", "Location hint for the new bucket, e.g. weur")
	return cmd
}

func (c *cli) deleteBucketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-bucket <bucket>",
		Short: "Delete an empty R2 bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			res, err := s3client.DeleteBucket(cmd.Context(), s3client.DeleteBucketOpts{Endpoint: env.Endpoint, Bucket: args[0]}, env.CC)
			if err != nil {
				return err
			}
			writeResponse(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func addListFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("prefix", "", "Only keys starting with this prefix")
	f.String("delimiter", "", "Group keys sharing a prefix up to this delimiter")
	f.Int("max_keys", 0, "Upper limit on keys returned (service default when 0)")
	f.String("encoding_type", "", "Ask the service to encode keys, e.g. url")
}

func (c *cli) listObjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-objects <bucket>",
		Short: "List objects within a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			opts := s3client.ListObjectsV2Opts{Endpoint: env.Endpoint, Bucket: args[0]}
			opts.Prefix, _ = f.GetString("prefix")
			opts.Delimiter, _ = f.GetString("delimiter")
			opts.MaxKeys, _ = f.GetInt("max_keys")
			opts.EncodingType, _ = f.GetString("encoding_type")
			opts.StartAfter, _ = f.GetString("start_after")
			opts.ContinuationToken, _ = f.GetString("continuation_token")

			result, err := s3client.ListObjectsV2(cmd.Context(), opts, env.CC)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeEntries(out, result.Contents, result.CommonPrefixes)
			if result.IsTruncated {
				fmt.Fprintf(out, "next continuation token: %s\n", result.NextContinuationToken)
			}
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("start_after", "", "Start listing after this key")
	cmd.Flags().String("continuation_token", "", "Continue a truncated listing")
	return cmd
}

func (c *cli) listObjectsV1Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-objects-v1 <bucket>",
		Short: "List objects within a bucket (deprecated v1 api)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			opts := s3client.ListObjectsOpts{Endpoint: env.Endpoint, Bucket: args[0]}
			opts.Prefix, _ = f.GetString("prefix")
			opts.Delimiter, _ = f.GetString("delimiter")
			opts.MaxKeys, _ = f.GetInt("max_keys")
			opts.EncodingType, _ = f.GetString("encoding_type")
			opts.Marker, _ = f.GetString("marker")

			result, err := s3client.ListObjects(cmd.Context(), opts, env.CC)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeEntries(out, result.Contents, result.CommonPrefixes)
			if result.IsTruncated {
				next := result.NextMarker
				if next == "" && len(result.Contents) > 0 {
					next = result.Contents[len(result.Contents)-1].Key
				}
				fmt.Fprintf(out, "next marker: %s\n", next)
			}
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("marker", "", "Start listing after this key")
	return cmd
}
