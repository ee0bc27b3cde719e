// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package signer_test

import (
	"context"
	"testing"

	k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/app/k1util"
	"github.com/obolnetwork/starsign/eip712"
	"github.com/obolnetwork/starsign/origination"
	"github.com/obolnetwork/starsign/signer"
)

const cowKey = "c85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"

var (
	cowAddr           = common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
	verifyingContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

func loadKey(t *testing.T, hexKey string) *k1.PrivateKey {
	t.Helper()

	key, err := k1util.ParseHex(hexKey)
	require.NoError(t, err)

	return key
}

func newLocal(t *testing.T) signer.Local {
	t.Helper()

	local, err := signer.NewLocal(loadKey(t, cowKey))
	require.NoError(t, err)

	return local
}

func testDomain() eip712.Domain {
	return origination.Domain(verifyingContract, uint256.NewInt(31337))
}

func zeroMessage() origination.Message {
	return origination.Message{
		Account:      cowAddr,
		AccountNonce: uint256.NewInt(0),
		Deadline:     uint256.NewInt(0),
	}
}

func fullMessage() origination.Message {
	var salt [32]byte
	salt[31] = 0x01

	return origination.Message{
		Account:      cowAddr,
		AccountNonce: uint256.NewInt(7),
		SingleUse:    true,
		Salt:         salt,
		Deadline:     uint256.NewInt(1700000000),
		Caveats: []origination.Caveat{
			{Enforcer: common.HexToAddress("0x1111111111111111111111111111111111111111"), Data: []byte{0xde, 0xad, 0xbe, 0xef}},
			{Enforcer: common.HexToAddress("0x2222222222222222222222222222222222222222"), Data: []byte{}},
		},
	}
}

func TestLocal(t *testing.T) {
	local := newLocal(t)
	require.Equal(t, cowAddr, local.Address())

	tests := []struct {
		name   string
		msg    origination.Message
		digest string
		sig    string
	}{
		{
			name:   "zero",
			msg:    zeroMessage(),
			digest: "0x8dc0da097284c6d1233ae98459aee54f943d168ab390a459fa51181d2d8bcfa3",
			sig:    "0x680b3c8ecc47cc9f93be7b3a13a7bc591f949cf851b5b4971ab0345e7c792e790f9d1d0a5703aee103f665c481d43383593d3b30df2e3b02d3229dd6609e7e6a1b",
		},
		{
			name:   "full",
			msg:    fullMessage(),
			digest: "0x3ef12f00341616ab45efbeed886c87412a1ed58ae7cc1c2886aba3a53847aedd",
			sig:    "0xe4e7eff364d8b3dc5cd487a61289268e53641898dd99b930a4c0a73ce344729f78d303e7b4d9ffd2ef63e7031bd5863dc26c90c98b7a57aa55e6901465d82ad21c",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := test.msg.TypedData(testDomain())

			digest, err := eip712.HashTypedData(data)
			require.NoError(t, err)
			require.Equal(t, test.digest, common.Hash(digest).Hex())

			sig, err := local.Sign(context.Background(), data)
			require.NoError(t, err)
			require.Equal(t, test.sig, sig.String())

			recovered, err := signer.Recover(digest, sig)
			require.NoError(t, err)
			require.Equal(t, cowAddr, recovered)
			require.NoError(t, signer.Verify(digest, sig, cowAddr))

			// go-ethereum expects V as 0 or 1.
			pubkey, err := crypto.SigToPub(digest[:], append(sig[:64:64], sig.V()-27))
			require.NoError(t, err)
			require.Equal(t, cowAddr, crypto.PubkeyToAddress(*pubkey))
		})
	}
}

func TestLocalSchemaError(t *testing.T) {
	local := newLocal(t)

	data := zeroMessage().TypedData(eip712.NewDomain())
	_, err := local.Sign(context.Background(), data)
	require.ErrorIs(t, err, eip712.ErrSchema)
}

func TestLocalMissingKey(t *testing.T) {
	_, err := signer.NewLocal(nil)
	require.ErrorIs(t, err, signer.ErrSigning)

	var zero signer.Local
	_, err = zero.Sign(context.Background(), zeroMessage().TypedData(testDomain()))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.ErrorContains(t, err, "missing private key")

	_, err = zero.SignDigest([32]byte{1})
	require.ErrorIs(t, err, signer.ErrSigning)
}

func TestSignature(t *testing.T) {
	b := make([]byte, 65)
	b[0] = 0xaa
	b[63] = 0xbb
	b[64] = 1

	sig, err := signer.SignatureFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, byte(28), sig.V())
	require.Equal(t, byte(0xaa), sig.R()[0])
	require.Equal(t, byte(0xbb), sig.S()[31])

	b[64] = 27
	sig, err = signer.SignatureFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, byte(27), sig.V())

	b[64] = 2
	_, err = signer.SignatureFromBytes(b)
	require.ErrorIs(t, err, signer.ErrSigning)

	_, err = signer.SignatureFromBytes(b[:64])
	require.ErrorIs(t, err, signer.ErrSigning)
}

func TestVerifyMismatch(t *testing.T) {
	local := newLocal(t)

	var digest [32]byte
	digest[0] = 1

	sig, err := local.SignDigest(digest)
	require.NoError(t, err)

	err = signer.Verify(digest, sig, common.HexToAddress("0x1111111111111111111111111111111111111111"))
	require.ErrorIs(t, err, signer.ErrSigning)
	require.False(t, signer.Retryable(err))

	var invalid signer.Signature
	invalid[64] = 27
	_, err = signer.Recover(digest, invalid)
	require.ErrorIs(t, err, signer.ErrSigning)
}
