// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package eip712

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// encodePrimitive returns the 32 byte word of an atomic value.
func encodePrimitive(typ string, v Value) ([32]byte, error) {
	var word [32]byte

	switch typ {
	case "address":
		if v.kind != KindAddress {
			return word, kindMismatch(typ, v)
		}
		copy(word[:], common.LeftPadBytes(v.addr.Bytes(), 32))

		return word, nil
	case "bool":
		if v.kind != KindBool {
			return word, kindMismatch(typ, v)
		}
		if v.flag {
			word[31] = 1
		}

		return word, nil
	}

	if bits, ok := uintBits(typ); ok {
		if v.kind != KindUint {
			return word, kindMismatch(typ, v)
		}

		if v.num == nil {
			return word, errors.Wrap(ErrEncoding, "missing integer", z.Str("type", typ))
		} else if v.num.Sign() < 0 {
			return word, errors.Wrap(ErrEncoding, "negative integer", z.Str("type", typ), z.Str("value", v.num.String()))
		}

		u, overflow := uint256.FromBig(v.num)
		if overflow || u.BitLen() > bits {
			return word, errors.Wrap(ErrEncoding, "integer overflow", z.Str("type", typ), z.Str("value", v.num.String()))
		}

		return u.Bytes32(), nil
	}

	if size, ok := fixedBytesLen(typ); ok {
		if v.kind != KindFixedBytes {
			return word, kindMismatch(typ, v)
		}

		if len(v.raw) != size {
			return word, errors.Wrap(ErrEncoding, "invalid fixed bytes length",
				z.Str("type", typ), z.Int("length", len(v.raw)))
		}
		copy(word[:], common.RightPadBytes(v.raw, 32))

		return word, nil
	}

	return word, errors.Wrap(ErrEncoding, "unsupported type", z.Str("type", typ))
}

func kindMismatch(typ string, v Value) error {
	return errors.Wrap(ErrEncoding, "value kind mismatch", z.Str("type", typ), z.Str("kind", v.kind.String()))
}
