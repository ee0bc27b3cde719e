// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package signer_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/k1util"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/signer"
)

const otherKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// rejectedErr is the EIP-1193 user rejection error.
type rejectedErr struct{}

func (rejectedErr) Error() string  { return "User rejected the request." }
func (rejectedErr) ErrorCode() int { return 4001 }

// wallet is a fake wallet JSON-RPC service exposing eth_signTypedData_v4.
type wallet struct {
	key    *k1.PrivateKey
	reject bool
	calls  atomic.Int32
}

func (w *wallet) SignTypedData_v4(_ common.Address, payload string) (hexutil.Bytes, error) { //nolint:revive,stylecheck // Method name defines the JSON-RPC method.
	w.calls.Add(1)

	if w.reject {
		return nil, rejectedErr{}
	}

	var data apitypes.TypedData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, err
	}

	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, err
	}

	return k1util.Sign(w.key, digest)
}

func startWallet(t *testing.T, w *wallet) string {
	t.Helper()

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", w))

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})

	return ts.URL
}

func TestRemote(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	url := startWallet(t, &wallet{key: loadKey(t, cowKey)})

	remote, err := signer.NewRemote(ctx, url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()
	require.Equal(t, cowAddr, remote.Address())

	full := fullMessage().TypedData(testDomain())

	expect, err := local.Sign(ctx, full)
	require.NoError(t, err)

	actual, err := remote.Sign(ctx, full)
	require.NoError(t, err)
	require.Equal(t, expect, actual)

	zero := zeroMessage().TypedData(testDomain())

	expect, err = local.Sign(ctx, zero)
	require.NoError(t, err)

	actual, err = remote.Sign(ctx, zero)
	require.NoError(t, err)
	require.Equal(t, expect, actual)
}

func TestRemoteWrongKey(t *testing.T) {
	ctx := context.Background()
	url := startWallet(t, &wallet{key: loadKey(t, otherKey)})
	data := fullMessage().TypedData(testDomain())

	remote, err := signer.NewRemote(ctx, url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()

	_, err = remote.Sign(ctx, data)
	require.ErrorIs(t, err, signer.ErrSigning)
	require.False(t, signer.Retryable(err))

	unverified, err := signer.NewRemote(ctx, url, cowAddr, signer.WithoutVerify())
	require.NoError(t, err)
	defer unverified.Close()

	sig, err := unverified.Sign(ctx, data)
	require.NoError(t, err)

	digest, err := fullMessage().Hash(testDomain())
	require.NoError(t, err)

	recovered, err := signer.Recover(digest, sig)
	require.NoError(t, err)
	require.Equal(t, k1util.Address(loadKey(t, otherKey).PubKey()), recovered)
}

func TestRemoteRejected(t *testing.T) {
	ctx := context.Background()
	w := &wallet{key: loadKey(t, cowKey), reject: true}
	url := startWallet(t, w)

	remote, err := signer.NewRemote(ctx, url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()

	_, err = remote.Sign(ctx, zeroMessage().TypedData(testDomain()))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.False(t, signer.Retryable(err))
	require.Contains(t, err.Error(), "rejected")
	require.EqualValues(t, 1, w.calls.Load())
}

func TestRemoteUnavailable(t *testing.T) {
	ctx := context.Background()

	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	remote, err := signer.NewRemote(ctx, url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()

	_, err = remote.Sign(ctx, zeroMessage().TypedData(testDomain()))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.True(t, signer.Retryable(err))

	// Errors wrapped by callers remain retryable.
	require.True(t, signer.Retryable(errors.Wrap(err, "sign")))
}

func TestRemoteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	url := startWallet(t, &wallet{key: loadKey(t, cowKey)})

	remote, err := signer.NewRemote(ctx, url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()

	cancel()

	_, err = remote.Sign(ctx, zeroMessage().TypedData(testDomain()))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.False(t, signer.Retryable(err))
}

func TestRemoteCancelledFields(t *testing.T) {
	url := startWallet(t, &wallet{key: loadKey(t, cowKey)})

	remote, err := signer.NewRemote(context.Background(), url, cowAddr)
	require.NoError(t, err)
	defer remote.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ctx = errors.WithCtxErr(ctx, "sign attempt", z.Int("attempt", 3))
	cancel()

	_, err = remote.Sign(ctx, zeroMessage().TypedData(testDomain()))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.True(t, z.ContainsField(err, z.Int("attempt", 3)))
	require.True(t, z.ContainsField(err, z.Str("reason", "sign attempt: context canceled")))
	require.False(t, signer.Retryable(err))
}
