// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package signer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/app/tracer"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
)

// DefaultRemoteURL is the JSON-RPC endpoint of a locally running Frame wallet.
const DefaultRemoteURL = "http://127.0.0.1:1248"

// signTypedDataMethod is the wallet JSON-RPC method accepting the standard EIP-712 JSON object.
const signTypedDataMethod = "eth_signTypedData_v4"

var _ Signer = (*Remote)(nil)

type remoteOptions struct {
	skipVerify bool
}

// RemoteOption configures a remote signer.
type RemoteOption func(*remoteOptions)

// WithoutVerify disables verifying that remote signatures recover to the account.
// The remote result is then accepted as-is.
func WithoutVerify() RemoteOption {
	return func(o *remoteOptions) {
		o.skipVerify = true
	}
}

// NewRemote returns a signer that delegates signing of the account to a wallet JSON-RPC endpoint.
func NewRemote(ctx context.Context, url string, account common.Address, opts ...RemoteOption) (*Remote, error) {
	var o remoteOptions
	for _, opt := range opts {
		opt(&o)
	}

	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrap(ErrSigning, "dial remote signer",
			z.Str("url", url), z.Str("reason", err.Error()), retryableField)
	}

	return &Remote{
		client:  client,
		url:     url,
		account: account,
		verify:  !o.skipVerify,
	}, nil
}

// Remote forwards typed data to a wallet which recomputes the digest and signs it.
// The wallet's digest is not trusted: unless disabled, the returned signature must
// recover to the account over the locally computed digest.
type Remote struct {
	client  *rpc.Client
	url     string
	account common.Address
	verify  bool
}

// Address returns the signing account.
func (r *Remote) Address() common.Address {
	return r.account
}

// Close closes the underlying client.
func (r *Remote) Close() {
	r.client.Close()
}

// Sign requests a signature of the typed data from the remote wallet. It blocks until the
// wallet responds or the context is cancelled. It performs no retries.
func (r *Remote) Sign(ctx context.Context, data eip712.TypedData) (Signature, error) {
	ctx = log.WithTopic(ctx, "remote")
	ctx, span := tracer.Start(ctx, "signer/remote.Sign", trace.WithAttributes(
		attribute.String("url", r.url),
		attribute.String("account", r.account.Hex()),
	))
	defer span.End()

	sig, result, err := r.sign(ctx, data)
	signCounter.WithLabelValues(signerRemote, result).Inc()
	if err != nil {
		span.RecordError(err)
		return Signature{}, err
	}

	return sig, nil
}

func (r *Remote) sign(ctx context.Context, data eip712.TypedData) (Signature, string, error) {
	digest, err := eip712.HashTypedData(data)
	if err != nil {
		return Signature{}, resultError, err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return Signature{}, resultError, errors.Wrap(err, "marshal typed data")
	}

	log.Debug(ctx, "Requesting remote signature", z.Addr("account", r.account), z.Hex("digest", digest[:]))

	t0 := time.Now()
	var resp hexutil.Bytes
	err = r.client.CallContext(ctx, &resp, signTypedDataMethod, r.account, string(payload))
	elapsed := time.Since(t0)

	if err != nil {
		result, err := r.callError(ctx, err)
		remoteLatency.WithLabelValues(result).Observe(elapsed.Seconds())

		return Signature{}, result, err
	}

	log.Debug(ctx, "Received remote signature", z.U64("latency_ms", uint64(elapsed.Milliseconds())))

	sig, err := SignatureFromBytes(resp)
	if err != nil {
		remoteLatency.WithLabelValues(resultError).Observe(elapsed.Seconds())
		return Signature{}, resultError, errors.Wrap(err, "remote signature")
	}

	if r.verify {
		if err := Verify(digest, sig, r.account); err != nil {
			remoteLatency.WithLabelValues(resultError).Observe(elapsed.Seconds())
			return Signature{}, resultError, errors.Wrap(err, "verify remote signature", z.Hex("digest", digest[:]))
		}
	}

	remoteLatency.WithLabelValues(resultOK).Observe(elapsed.Seconds())

	return sig, resultOK, nil
}

// callError classifies a failed JSON-RPC call and returns its result label and error.
// Fields of structured context errors, see errors.WithCtxErr, are retained.
func (r *Remote) callError(ctx context.Context, err error) (string, error) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return resultRejected, errors.Wrap(ErrSigning, "remote signer rejected request",
			z.Int("code", rpcErr.ErrorCode()), z.Str("reason", rpcErr.Error()))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		fields := append([]z.Field{z.Str("reason", ctxErr.Error())}, z.Fields(ctxErr)...)
		return resultError, errors.Wrap(ErrSigning, "remote signer request cancelled", fields...)
	}

	return resultError, errors.Wrap(ErrSigning, "remote signer unavailable",
		z.Str("url", r.url), z.Str("reason", err.Error()), retryableField)
}
