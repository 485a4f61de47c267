// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/config"
	"github.com/LeeDigitalWorks/zapctl/pkg/debug"
	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3client"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitBadOptions = 2
)

// cli is the state shared by one command tree.
type cli struct {
	v *viper.Viper

	// httpClient and now are replaced in tests.
	httpClient *http.Client
	now        func() time.Time
}

func newCLI(v *viper.Viper) *cli {
	return &cli{v: v}
}

var rootCmd = newCLI(viper.New()).rootCommand()

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "zapctl",
		Short: "zapctl - signed requests against S3 compatible object storage",
		Long: `zapctl talks to Cloudflare R2 and other S3 compatible services using
AWS SigV4 signed requests. Large bodies are streamed from disk and hashed in
separate passes, never buffered in memory.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	f := root.PersistentFlags()
	f.String("config_dir", "", "Directory for configuration files")
	f.String("profile", "", "Profile name from the config file (or set ZAPCTL_PROFILE)")
	f.Bool("verbose", false, "Log requests, canonical requests and strings to sign")
	f.Bool("print_metrics", false, "Print request metrics to stderr on exit")

	root.Version = Version
	root.SetVersionTemplate("zapctl {{.Version}}\n")
	root.AddCommand(newVersionCmd(), c.r2Command())
	return root
}

// setup loads the config file and installs the per invocation logger.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config_dir")
	if _, err := utils.LoadConfiguration(c.v, configDir, config.FileName, false); err != nil {
		return &s3client.ConfigurationError{Msg: "config", Err: err}
	}

	level := zerolog.InfoLevel
	if c.flags(cmd).Bool("verbose") {
		level = zerolog.DebugLevel
	}
	log := logger.Console(cmd.ErrOrStderr(), level).With().
		Str("invocation", uuid.NewString()).
		Logger()
	log.Debug().Fields(VersionInfo()).Msg("starting")
	cmd.SetContext(logger.WithLogger(cmd.Context(), &log))
	return nil
}

func (c *cli) flags(cmd *cobra.Command) *FlagLoader {
	return NewFlagLoader(cmd, c.v)
}

// run executes root and prints metrics when asked, even on failure.
func run(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if printMetrics, _ := root.PersistentFlags().GetBool("print_metrics"); printMetrics {
		if merr := debug.WriteMetrics(root.ErrOrStderr()); merr != nil {
			err = errors.Join(err, merr)
		}
	}
	return err
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, s3client.ErrConfiguration):
		return exitBadOptions
	default:
		return exitFailure
	}
}

// Execute runs the command tree until done or interrupted. The error has
// already been printed.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := run(ctx, rootCmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
