// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/origination"
)

type caveatsConfig struct {
	Telemetry telemetryConfig
	Args      []string
}

// caveatJSON is the JSON form of a caveat.
type caveatJSON struct {
	Enforcer string `json:"enforcer"`
	Data     string `json:"data"`
}

func newCaveatsCmd(cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:   "caveats",
		Short: "Decode or encode ABI encoded origination caveats",
	}

	root.AddCommand(cmds...)

	return root
}

func newCaveatsDecodeCmd(runFunc func(ctx context.Context, out io.Writer, config caveatsConfig) error) *cobra.Command {
	var config caveatsConfig

	cmd := &cobra.Command{
		Use:   "decode <caveatsRaw>",
		Short: "Print ABI encoded (address enforcer,bytes data)[] caveats as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Args = args

			return runWithTelemetry(cmd.Context(), "caveats_decode", config.Telemetry, cmd.ErrOrStderr(), cmd.Flags(),
				func(ctx context.Context) error {
					return runFunc(ctx, cmd.OutOrStdout(), config)
				})
		},
	}

	bindTelemetryFlags(cmd.Flags(), &config.Telemetry)

	return cmd
}

func newCaveatsEncodeCmd(runFunc func(ctx context.Context, out io.Writer, config caveatsConfig) error) *cobra.Command {
	var config caveatsConfig

	cmd := &cobra.Command{
		Use:   "encode [<enforcer>:<hexdata>...]",
		Short: "Print the ABI encoding of (address enforcer,bytes data)[] caveats",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Args = args

			return runWithTelemetry(cmd.Context(), "caveats_encode", config.Telemetry, cmd.ErrOrStderr(), cmd.Flags(),
				func(ctx context.Context) error {
					return runFunc(ctx, cmd.OutOrStdout(), config)
				})
		},
	}

	bindTelemetryFlags(cmd.Flags(), &config.Telemetry)

	return cmd
}

func runCaveatsDecode(_ context.Context, out io.Writer, config caveatsConfig) error {
	caveats, err := origination.ParseCaveats(config.Args[0])
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(caveatsToJSON(caveats), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal caveats")
	}

	_, _ = fmt.Fprintln(out, string(b))

	return nil
}

func caveatsToJSON(caveats []origination.Caveat) []caveatJSON {
	resp := make([]caveatJSON, 0, len(caveats))
	for _, caveat := range caveats {
		resp = append(resp, caveatJSON{
			Enforcer: caveat.Enforcer.Hex(),
			Data:     hexutil.Encode(caveat.Data),
		})
	}

	return resp
}

func runCaveatsEncode(_ context.Context, out io.Writer, config caveatsConfig) error {
	caveats := make([]origination.Caveat, 0, len(config.Args))
	for _, arg := range config.Args {
		enforcer, data, ok := strings.Cut(arg, ":")
		if !ok {
			return errors.New("caveat not in <enforcer>:<hexdata> format", z.Str("caveat", arg))
		}

		addr, err := origination.ParseAddress(enforcer)
		if err != nil {
			return errors.Wrap(err, "parse enforcer")
		}

		b, err := hexutil.Decode(data)
		if err != nil {
			return errors.Wrap(err, "decode caveat data", z.Str("caveat", arg))
		}

		caveats = append(caveats, origination.Caveat{Enforcer: addr, Data: b})
	}

	raw, err := origination.EncodeCaveats(caveats)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, hexutil.Encode(raw))

	return nil
}
