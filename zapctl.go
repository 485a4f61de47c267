// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/LeeDigitalWorks/zapctl/cmd"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"

	"github.com/getsentry/sentry-go"
)

func main() {
	// Without SENTRY_DSN the client is a no-op.
	err := sentry.Init(sentry.ClientOptions{
		Release:    "zapctl@" + cmd.Version,
		SampleRate: 1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentry.Init: %v\n", err)
	}

	err = cmd.Execute()
	if err != nil && !errors.Is(err, s3client.ErrConfiguration) {
		sentry.CaptureException(err)
	}
	// Flush buffered events before the program terminates.
	sentry.Flush(2 * time.Second)
	os.Exit(cmd.ExitCode(err))
}
