// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/app/tracer"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
)

type hashConfig struct {
	Telemetry      telemetryConfig
	Domain         domainConfig
	PrintTypedData bool
	Args           originationArgs
}

func newHashCmd(runFunc func(ctx context.Context, out, errOut io.Writer, config hashConfig) error) *cobra.Command {
	var config hashConfig

	cmd := &cobra.Command{
		Use:   "hash " + originationUse,
		Short: "Print the EIP-712 digest of an origination",
		Long: `Computes the EIP-712 digest of an origination message and prints it as 0x-prefixed hex.
The signerKey argument is accepted for compatibility and ignored.`,
		Args: cobra.ExactArgs(9),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Args = newOriginationArgs(args)

			return runWithTelemetry(cmd.Context(), "hash", config.Telemetry, cmd.ErrOrStderr(), cmd.Flags(),
				func(ctx context.Context) error {
					return runFunc(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), config)
				})
		},
	}

	bindHashFlags(cmd.Flags(), &config)

	return cmd
}

func bindHashFlags(flags *pflag.FlagSet, config *hashConfig) {
	bindTelemetryFlags(flags, &config.Telemetry)
	bindDomainFlags(flags, &config.Domain)
	flags.BoolVar(&config.PrintTypedData, "print-typed-data", false, "Print the EIP-712 JSON typed data to stderr.")
}

func runHash(ctx context.Context, out, errOut io.Writer, config hashConfig) error {
	data, err := config.Args.typedData(config.Domain)
	if err != nil {
		return err
	}

	if config.PrintTypedData {
		if err := printTypedData(errOut, data); err != nil {
			return err
		}
	}

	digest, err := hashTypedData(ctx, data)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, hexutil.Encode(digest[:]))

	return nil
}

// hashTypedData returns the EIP-712 digest of the typed data.
func hashTypedData(ctx context.Context, data eip712.TypedData) ([32]byte, error) {
	_, span := tracer.Start(ctx, "eip712.HashTypedData")
	defer span.End()

	digest, err := eip712.HashTypedData(data)
	if err != nil {
		return [32]byte{}, err
	}

	hashCounter.Inc()
	log.Debug(ctx, "Computed digest", z.Hex("digest", digest[:]))

	return digest, nil
}

// printTypedData writes the indented EIP-712 JSON of the typed data.
func printTypedData(w io.Writer, data eip712.TypedData) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal typed data")
	}

	_, _ = fmt.Fprintln(w, string(b))

	return nil
}
