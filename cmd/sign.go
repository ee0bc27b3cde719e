// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/expbackoff"
	"github.com/obolnetwork/starsign/app/k1util"
	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
	"github.com/obolnetwork/starsign/origination"
	"github.com/obolnetwork/starsign/signer"
)

// keyFromFile is the signerKey argument value that selects the key file or remote signer.
const keyFromFile = "-"

type signConfig struct {
	Telemetry      telemetryConfig
	Domain         domainConfig
	SignerKeyFile  string
	RemoteURL      string
	RemoteTimeout  time.Duration
	RemoteRetries  int
	RemoteNoVerify bool
	Args           originationArgs
}

func newSignCmd(runFunc func(ctx context.Context, out io.Writer, config signConfig) error) *cobra.Command {
	var config signConfig

	cmd := &cobra.Command{
		Use:   "sign " + originationUse,
		Short: "Print the signature of an origination",
		Long: `Signs the EIP-712 digest of an origination message and prints the 65 byte [R || S || V] signature
as 0x-prefixed hex. The signerKey argument is a hex secp256k1 private key, or "-" to use
--signer-key-file or --remote-signer-url.`,
		Args: cobra.ExactArgs(9),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Args = newOriginationArgs(args)

			return runWithTelemetry(cmd.Context(), "sign", config.Telemetry, cmd.ErrOrStderr(), cmd.Flags(),
				func(ctx context.Context) error {
					return runFunc(ctx, cmd.OutOrStdout(), config)
				})
		},
	}

	bindSignFlags(cmd.Flags(), &config)

	return cmd
}

func bindSignFlags(flags *pflag.FlagSet, config *signConfig) {
	bindTelemetryFlags(flags, &config.Telemetry)
	bindDomainFlags(flags, &config.Domain)
	flags.StringVar(&config.SignerKeyFile, "signer-key-file", "", "Path of a hex encoded secp256k1 private key, used when the signerKey argument is \"-\".")
	flags.StringVar(&config.RemoteURL, "remote-signer-url", "", "Wallet JSON-RPC endpoint to request eth_signTypedData_v4 signatures from, e.g. "+signer.DefaultRemoteURL+".")
	flags.DurationVar(&config.RemoteTimeout, "remote-timeout", 2*time.Minute, "Timeout of each remote signing request, including user confirmation.")
	flags.IntVar(&config.RemoteRetries, "remote-retries", 0, "Number of times to retry an unavailable remote signer. Rejected requests are never retried.")
	flags.BoolVar(&config.RemoteNoVerify, "remote-no-verify", false, "Accept remote signatures without verifying they recover to the account.")
}

func runSign(ctx context.Context, out io.Writer, config signConfig) error {
	data, err := config.Args.typedData(config.Domain)
	if err != nil {
		return err
	}

	s, closeFunc, err := newSigner(ctx, config)
	if err != nil {
		return err
	}
	defer closeFunc()

	sig, err := signWithRetries(ctx, s, data, config)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, sig.String())

	return nil
}

// newSigner returns the local or remote signer selected by the config.
func newSigner(ctx context.Context, config signConfig) (signer.Signer, func(), error) {
	if config.RemoteURL != "" {
		if config.Args.SignerKey != keyFromFile {
			return nil, nil, errors.New("signerKey argument must be \"-\" when using a remote signer")
		}

		account, err := origination.ParseAddress(config.Args.Account)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse account")
		}

		var opts []signer.RemoteOption
		if config.RemoteNoVerify {
			opts = append(opts, signer.WithoutVerify())
		}

		remote, err := signer.NewRemote(ctx, config.RemoteURL, account, opts...)
		if err != nil {
			return nil, nil, err
		}

		return remote, remote.Close, nil
	}

	key, err := loadSignerKey(config)
	if err != nil {
		return nil, nil, err
	}

	local, err := signer.NewLocal(key)
	if err != nil {
		return nil, nil, err
	}

	if account, err := origination.ParseAddress(config.Args.Account); err == nil && account != local.Address() {
		log.Warn(ctx, "Signer key does not match the origination account", nil,
			z.Addr("signer", local.Address()), z.Addr("account", account))
	}

	return local, func() {}, nil
}

func loadSignerKey(config signConfig) (*k1.PrivateKey, error) {
	if config.Args.SignerKey != keyFromFile {
		key, err := k1util.ParseHex(config.Args.SignerKey)
		if err != nil {
			return nil, errors.Wrap(signer.ErrSigning, "invalid signer key", z.Str("reason", err.Error()))
		}

		return key, nil
	}

	if config.SignerKeyFile == "" {
		return nil, errors.New("either signerKey argument, --signer-key-file or --remote-signer-url must be specified")
	}

	key, err := k1util.Load(config.SignerKeyFile)
	if err != nil {
		return nil, errors.Wrap(signer.ErrSigning, "load signer key",
			z.Str("file", config.SignerKeyFile), z.Str("reason", err.Error()))
	}

	return key, nil
}

// signWithRetries signs the typed data, retrying unavailable remote signers with exponential backoff.
func signWithRetries(ctx context.Context, s signer.Signer, data eip712.TypedData, config signConfig) (signer.Signature, error) {
	backoff := expbackoff.New(ctx, expbackoff.WithFastConfig())
	filter := log.Filter()

	for attempt := 0; ; attempt++ {
		sig, err := signAttempt(ctx, s, data, config.RemoteTimeout)
		if err == nil {
			return sig, nil
		}

		if !signer.Retryable(err) || attempt >= config.RemoteRetries || ctx.Err() != nil {
			return signer.Signature{}, err
		}

		log.Warn(ctx, "Remote signer unavailable, retrying", err, z.Int("attempt", attempt+1), filter)
		backoff()
	}
}

func signAttempt(ctx context.Context, s signer.Signer, data eip712.TypedData, timeout time.Duration) (signer.Signature, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()

		ctx = errors.WithCtxErr(ctx, "remote signing attempt", z.Any("timeout", timeout))
	}

	return s.Sign(ctx, data)
}
