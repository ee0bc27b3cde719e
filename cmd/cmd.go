// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package cmd implements the starsign command-line interface.
package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/app/z"
)

const (
	// The name of our config file, without the file extension because
	// viper supports many different config file languages.
	defaultConfigFilename = "starsign"

	// The environment variable prefix of all environment variables bound to our command line flags.
	envPrefix = "starsign"

	// dotEnvFile is loaded into the environment if present.
	dotEnvFile = ".env"
)

// New returns a new root cobra command that handles our command line tool.
func New() *cobra.Command {
	return newRootCmd(
		newHashCmd(runHash),
		newSignCmd(runSign),
		newRecoverCmd(runRecover),
		newCaveatsCmd(
			newCaveatsDecodeCmd(runCaveatsDecode),
			newCaveatsEncodeCmd(runCaveatsEncode),
		),
		newVersionCmd(runVersionCmd),
	)
}

func newRootCmd(cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:   "starsign",
		Short: "Starsign - EIP-712 origination hashing and signing",
		Long: `Starsign computes the EIP-712 digest of Starport origination messages and signs them
with a local secp256k1 key or a remote wallet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeConfig(cmd)
		},
	}

	root.AddCommand(cmds...)

	return root
}

// initializeConfig sets up the general viper config and binds the cobra flags to the viper flags.
func initializeConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load dotenv file", z.Str("file", dotEnvFile))
	}

	v := viper.New()

	v.SetConfigName(defaultConfigFilename)
	v.AddConfigPath(".")

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	v.SetEnvPrefix(envPrefix)
	// Environment variables can't have dashes in them, so bind them to their equivalent
	// keys with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	return bindFlags(cmd.Flags(), v)
}

// bindFlags binds each cobra flag to its associated viper configuration (config file and environment variable).
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var lastErr error

	flags.VisitAll(func(f *pflag.Flag) {
		// Cobra provided flags take priority
		if f.Changed {
			return
		}

		if !v.IsSet(f.Name) {
			return
		}

		if err := flags.Set(f.Name, fmt.Sprint(v.Get(f.Name))); err != nil {
			lastErr = errors.Wrap(err, "set flag from config", z.Str("flag", f.Name))
		}
	})

	return lastErr
}

// printFlags logs the parsed flags at debug level with secrets redacted.
func printFlags(ctx context.Context, flags *pflag.FlagSet) {
	log.Debug(ctx, "Parsed config", flagsToLogFields(flags)...)
}

// flagsToLogFields converts the given flags to log fields.
func flagsToLogFields(flags *pflag.FlagSet) []z.Field {
	var fields []z.Field
	flags.VisitAll(func(flag *pflag.Flag) {
		fields = append(fields, z.Str(flag.Name, redact(flag.Name, flag.Value.String())))
	})

	return fields
}

// redact returns a redacted version of the given flag value. It currently supports redacting
// private keys and passwords in URLs.
func redact(flag, val string) string {
	if strings.Contains(flag, "signer-key") && !strings.HasSuffix(flag, "-file") {
		return "xxxxx"
	}

	if !strings.HasSuffix(flag, "-url") {
		return val
	}

	u, err := url.Parse(val)
	if err != nil {
		return val
	}

	return u.Redacted()
}

// bindLogFlags binds the log flags.
func bindLogFlags(flags *pflag.FlagSet, config *log.Config) {
	flags.StringVar(&config.Format, "log-format", "console", "Log format; console, logfmt or json")
	flags.StringVar(&config.Level, "log-level", "info", "Log level; debug, info, warn or error")
	flags.StringVar(&config.Color, "log-color", "auto", "Log color; auto, force, disable.")
	flags.StringVar(&config.OutputPath, "log-output-path", "", "Path of an additional rotated log file.")
}
