// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/signer"
)

type recoverConfig struct {
	Telemetry telemetryConfig
	Digest    string
	Signature string
}

func newRecoverCmd(runFunc func(ctx context.Context, out io.Writer, config recoverConfig) error) *cobra.Command {
	var config recoverConfig

	cmd := &cobra.Command{
		Use:   "recover <digest> <signature>",
		Short: "Print the address that signed a digest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Digest, config.Signature = args[0], args[1]

			return runWithTelemetry(cmd.Context(), "recover", config.Telemetry, cmd.ErrOrStderr(), cmd.Flags(),
				func(ctx context.Context) error {
					return runFunc(ctx, cmd.OutOrStdout(), config)
				})
		},
	}

	bindRecoverFlags(cmd.Flags(), &config)

	return cmd
}

func bindRecoverFlags(flags *pflag.FlagSet, config *recoverConfig) {
	bindTelemetryFlags(flags, &config.Telemetry)
}

func runRecover(_ context.Context, out io.Writer, config recoverConfig) error {
	digestBytes, err := hexutil.Decode(config.Digest)
	if err != nil {
		return errors.Wrap(err, "decode digest")
	} else if len(digestBytes) != 32 {
		return errors.New("digest not 32 bytes", z.Int("len", len(digestBytes)))
	}

	sigBytes, err := hexutil.Decode(config.Signature)
	if err != nil {
		return errors.Wrap(err, "decode signature")
	}

	sig, err := signer.SignatureFromBytes(sigBytes)
	if err != nil {
		return err
	}

	addr, err := signer.Recover([32]byte(digestBytes), sig)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, addr.Hex())

	return nil
}
