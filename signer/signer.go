// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package signer provides EIP-712 signers backed by a local secp256k1 key or a remote wallet.
package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/k1util"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
)

// ErrSigning indicates a key failure, an unavailable or misbehaving remote signer, or a rejected request.
var ErrSigning = errors.NewSentinel("signing failed")

// retryableField marks signing errors caused by an unavailable remote endpoint.
var retryableField = z.Bool("retryable", true)

// Retryable returns true if the signing error was caused by an unavailable endpoint
// and the request may be retried. Rejected requests and invalid signatures are never retryable.
func Retryable(err error) bool {
	return z.ContainsField(err, retryableField)
}

// Signer signs EIP-712 typed data.
type Signer interface {
	// Sign returns the signature over the EIP-712 digest of the typed data.
	Sign(ctx context.Context, data eip712.TypedData) (Signature, error)
	// Address returns the address of the signing key.
	Address() common.Address
}

// Signature is a 65 byte secp256k1 signature in the [R || S || V] format where V is 27 or 28.
type Signature [65]byte

// SignatureFromBytes returns a signature from 65 bytes with a V of 0, 1, 27 or 28.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != len(Signature{}) {
		return Signature{}, errors.Wrap(ErrSigning, "signature not 65 bytes", z.Int("len", len(b)))
	}

	var resp Signature
	copy(resp[:], b)

	switch resp[64] {
	case 0, 1:
		resp[64] += 27
	case 27, 28:
	default:
		return Signature{}, errors.Wrap(ErrSigning, "invalid recovery id", z.Int("v", int(resp[64])))
	}

	return resp, nil
}

// R returns the signature R value.
func (s Signature) R() [32]byte {
	var r [32]byte
	copy(r[:], s[:32])

	return r
}

// S returns the signature S value.
func (s Signature) S() [32]byte {
	var r [32]byte
	copy(r[:], s[32:64])

	return r
}

// V returns the recovery id, 27 or 28.
func (s Signature) V() byte {
	return s[64]
}

// String returns the 0x-prefixed hex encoding of the signature.
func (s Signature) String() string {
	return hexutil.Encode(s[:])
}

// Recover returns the address of the key that signed the digest.
func Recover(digest [32]byte, sig Signature) (common.Address, error) {
	pubkey, err := k1util.Recover(digest[:], sig[:])
	if err != nil {
		return common.Address{}, errors.Wrap(ErrSigning, "recover signer", z.Str("reason", err.Error()))
	}

	return k1util.Address(pubkey), nil
}

// Verify returns an ErrSigning error if the signature over the digest wasn't produced by the address.
func Verify(digest [32]byte, sig Signature, addr common.Address) error {
	recovered, err := Recover(digest, sig)
	if err != nil {
		return err
	}

	if recovered != addr {
		return errors.Wrap(ErrSigning, "signature from unexpected address",
			z.Addr("expect", addr), z.Addr("actual", recovered))
	}

	return nil
}
