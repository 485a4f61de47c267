// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/spf13/cobra"
)

func (c *cli) presignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presign <bucket> <key>",
		Short: "Generate a presigned url for an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString("method")
			method = strings.ToUpper(method)
			switch method {
			case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
			default:
				return &s3client.ConfigurationError{Msg: fmt.Sprintf("bad --method %q", method)}
			}
			expires, _ := cmd.Flags().GetDuration("expires")

			env, err := c.loadR2(cmd)
			if err != nil {
				return err
			}
			u, err := s3client.BucketURL(s3client.AddressInput{
				Origin: env.Endpoint.Origin,
				Bucket: args[0],
				Key:    args[1],
				Style:  env.Endpoint.URLStyle,
			})
			if err != nil {
				return err
			}
			now := time.Now()
			if c.now != nil {
				now = c.now()
			}
			presigned, err := signature.NewSigner(env.CC.Credentials, env.Endpoint.Region).Presign(method, u, expires, now)
			if err != nil {
				return &s3client.ConfigurationError{Msg: "presign", Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), presigned.String())
			return nil
		},
	}
	cmd.Flags().String("method", http.MethodGet, "HTTP method the url is valid for")
	cmd.Flags().Duration("expires", time.Hour, "How long the url stays valid (at most 7 days)")
	return cmd
}
