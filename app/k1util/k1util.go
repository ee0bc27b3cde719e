// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package k1util provides helper function for working with secp256k1 keys.
package k1util

import (
	"encoding/hex"
	"os"
	"strings"

	k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

const (
	scalarLen = 32
	// k1HashLen is the length of secp256k1 signature hash/digest.
	k1HashLen = 32
	// k1SigLen is the Ethereum format length of secp256k1 signatures.
	k1SigLen = 65
	// k1RecIdx is the Ethereum format secp256k1 signature recovery id index.
	k1RecIdx = 64

	// compactSigMagicOffset is a value used when creating the compact signature
	// recovery code inherited from Bitcoin.
	compactSigMagicOffset = 27
)

// Sign returns a signature from input data.
//
// The produced signature is 65 bytes in the [R || S || V] format where V is 0 or 1.
func Sign(key *k1.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != k1HashLen {
		return nil, errors.New("signing hash/digest not 32 bytes", z.Int("len", len(hash)))
	}

	sig := ecdsa.SignCompact(key, hash, false)

	// Convert signature from "compact" into "Ethereum R S V" format.
	recovery := sig[0] // Compact sig recovery code is the value 27 + public key recovery code
	sig = append(sig[1:], recovery-compactSigMagicOffset)

	return sig, nil
}

// Verify65 returns whether the 65 byte signature is valid for the provided hash
// and secp256k1 public key.
//
// Note the signature MUST be 65 bytes in the [R || S || V] format where V is the recovery ID.
func Verify65(pubkey *k1.PublicKey, hash []byte, sig []byte) (bool, error) {
	recovered, err := Recover(hash, sig)
	if err != nil {
		return false, err
	}

	return pubkey.IsEqual(recovered), nil
}

// Recover returns the recovered public key from signature hash.
//
// Note the signature MUST be 65 bytes in the [R || S || V] format where V is 0/27 or 1/28.
func Recover(hash []byte, sig []byte) (*k1.PublicKey, error) {
	if len(hash) != k1HashLen {
		return nil, errors.New("signing hash/digest not 32 bytes", z.Int("len", len(hash)))
	}

	if len(sig) != k1SigLen {
		return nil, errors.New("signature not 65 bytes", z.Int("len", len(sig)))
	}

	recID := sig[k1RecIdx]
	if recID != 0 && recID != 1 && recID != compactSigMagicOffset && recID != compactSigMagicOffset+1 {
		return nil, errors.New("invalid recovery id", z.Int("id", int(recID)))
	}

	// Put recovery ID first.
	compact := append([]byte{recID}, sig[:k1RecIdx]...)
	if compact[0] < compactSigMagicOffset {
		compact[0] += compactSigMagicOffset
	}

	pubkey, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, errors.Wrap(err, "parse signature")
	}

	return pubkey, nil
}

// Address returns the Ethereum address of the public key.
func Address(pubkey *k1.PublicKey) common.Address {
	return crypto.PubkeyToAddress(*pubkey.ToECDSA())
}

// ParseHex returns a private key from a hex encoded 32 byte scalar with optional 0x prefix.
// Zero and out of range scalars are rejected.
func ParseHex(hexStr string) (*k1.PrivateKey, error) {
	hexStr = strings.TrimPrefix(strings.TrimSpace(hexStr), "0x")

	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key hex")
	} else if len(b) != scalarLen {
		return nil, errors.New("private key not 32 bytes", z.Int("len", len(b)))
	}

	var s k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		return nil, errors.New("private key exceeds curve order")
	} else if s.IsZero() {
		return nil, errors.New("zero private key")
	}

	return k1.NewPrivateKey(&s), nil
}

// Load returns a private key by reading it from a hex encoded file on disk.
func Load(file string) (*k1.PrivateKey, error) {
	hexStr, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read private key from disk", z.Str("file", file))
	}

	return ParseHex(string(hexStr))
}
