// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package signer

import (
	"context"

	k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/k1util"
	"github.com/obolnetwork/starsign/app/tracer"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
)

var _ Signer = Local{}

// NewLocal returns a signer that signs digests directly with the secp256k1 key.
func NewLocal(key *k1.PrivateKey) (Local, error) {
	if key == nil {
		return Local{}, errors.Wrap(ErrSigning, "missing private key")
	}

	return Local{
		key:  key,
		addr: k1util.Address(key.PubKey()),
	}, nil
}

// Local signs with an in-memory secp256k1 private key.
type Local struct {
	key  *k1.PrivateKey
	addr common.Address
}

// Address returns the address of the key.
func (l Local) Address() common.Address {
	return l.addr
}

// Sign returns a deterministic RFC6979 signature over the EIP-712 digest of the typed data.
func (l Local) Sign(ctx context.Context, data eip712.TypedData) (Signature, error) {
	_, span := tracer.Start(ctx, "signer/local.Sign")
	defer span.End()

	sig, err := l.sign(data)
	if err != nil {
		signCounter.WithLabelValues(signerLocal, resultError).Inc()
		span.RecordError(err)

		return Signature{}, err
	}

	signCounter.WithLabelValues(signerLocal, resultOK).Inc()

	return sig, nil
}

func (l Local) sign(data eip712.TypedData) (Signature, error) {
	digest, err := eip712.HashTypedData(data)
	if err != nil {
		return Signature{}, err
	}

	return l.SignDigest(digest)
}

// SignDigest returns a signature over the digest without any additional hashing.
func (l Local) SignDigest(digest [32]byte) (Signature, error) {
	if l.key == nil {
		return Signature{}, errors.Wrap(ErrSigning, "missing private key")
	}

	b, err := k1util.Sign(l.key, digest[:])
	if err != nil {
		return Signature{}, errors.Wrap(ErrSigning, "sign digest", z.Str("reason", err.Error()))
	}

	if ok, err := k1util.Verify65(l.key.PubKey(), digest[:], b); err != nil {
		return Signature{}, errors.Wrap(ErrSigning, "verify own signature", z.Str("reason", err.Error()))
	} else if !ok {
		return Signature{}, errors.Wrap(ErrSigning, "own signature does not recover to key", z.Hex("digest", digest[:]))
	}

	return SignatureFromBytes(b)
}
