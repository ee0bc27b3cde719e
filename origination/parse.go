// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package origination

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/eip712"
)

// ParseUint256 parses a decimal or 0x-prefixed hex unsigned integer.
// Malformed values and values wider than 256 bits return an eip712.ErrEncoding error, they are never truncated.
func ParseUint256(s string) (*uint256.Int, error) {
	if hexStr, ok := cutHexPrefix(s); ok {
		if hexStr == "" || !isHex(hexStr) {
			return nil, errors.Wrap(eip712.ErrEncoding, "invalid hex integer", z.Str("value", s))
		}

		hexStr = strings.TrimLeft(hexStr, "0")
		if hexStr == "" {
			return new(uint256.Int), nil
		} else if len(hexStr) > 64 {
			return nil, errors.Wrap(eip712.ErrEncoding, "integer exceeds 256 bits", z.Str("value", s))
		}

		resp, err := uint256.FromHex("0x" + hexStr)
		if err != nil {
			return nil, errors.Wrap(eip712.ErrEncoding, "parse hex integer", z.Str("value", s), z.Str("reason", err.Error()))
		}

		return resp, nil
	}

	if s == "" || strings.Trim(s, "0123456789") != "" {
		return nil, errors.Wrap(eip712.ErrEncoding, "invalid decimal integer", z.Str("value", s))
	}

	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrap(eip712.ErrEncoding, "invalid decimal integer", z.Str("value", s))
	}

	resp, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Wrap(eip712.ErrEncoding, "integer exceeds 256 bits", z.Str("value", s))
	}

	return resp, nil
}

// ParseBool parses true/false or an integer flag where any non-zero value is true.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	n, err := ParseUint256(s)
	if err != nil {
		return false, errors.Wrap(err, "parse bool", z.Str("value", s))
	}

	return !n.IsZero(), nil
}

// ParseSalt parses a hex salt of at most 32 bytes, left-zero-padding it to 32 bytes.
// An odd number of hex digits is left-padded with a zero nibble.
func ParseSalt(s string) ([32]byte, error) {
	hexStr, _ := cutHexPrefix(s)
	if len(hexStr)%2 == 1 {
		hexStr = "0" + hexStr
	}

	b, err := hexutil.Decode("0x" + hexStr)
	if err != nil {
		return [32]byte{}, errors.Wrap(eip712.ErrEncoding, "decode salt", z.Str("value", s), z.Str("reason", err.Error()))
	} else if len(b) > 32 {
		return [32]byte{}, errors.Wrap(eip712.ErrEncoding, "salt exceeds 32 bytes", z.Int("length", len(b)))
	}

	var resp [32]byte
	copy(resp[:], common.LeftPadBytes(b, 32))

	return resp, nil
}

// ParseAddress parses a 0x-prefixed 20 byte hex address.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, errors.Wrap(eip712.ErrEncoding, "address missing 0x prefix", z.Str("value", s))
	} else if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrap(eip712.ErrEncoding, "invalid address", z.Str("value", s))
	}

	return common.HexToAddress(s), nil
}

// ParseCaveats decodes 0x-prefixed hex ABI encoded caveats.
func ParseCaveats(s string) ([]Caveat, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrDecoding, "decode caveats hex", z.Str("reason", err.Error()))
	}

	return DecodeCaveats(raw)
}

// ParseMessage parses the positional CLI values into a message.
func ParseMessage(account, accountNonce, singleUse, salt, deadline, caveatsRaw string) (Message, error) {
	acc, err := ParseAddress(account)
	if err != nil {
		return Message{}, errors.Wrap(err, "parse account")
	}

	nonce, err := ParseUint256(accountNonce)
	if err != nil {
		return Message{}, errors.Wrap(err, "parse account nonce")
	}

	single, err := ParseBool(singleUse)
	if err != nil {
		return Message{}, errors.Wrap(err, "parse single use")
	}

	s, err := ParseSalt(salt)
	if err != nil {
		return Message{}, err
	}

	dl, err := ParseUint256(deadline)
	if err != nil {
		return Message{}, errors.Wrap(err, "parse deadline")
	}

	caveats, err := ParseCaveats(caveatsRaw)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Account:      acc,
		AccountNonce: nonce,
		SingleUse:    single,
		Salt:         s,
		Deadline:     dl,
		Caveats:      caveats,
	}, nil
}

func cutHexPrefix(s string) (string, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:], true
	}

	return s, false
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}

	return true
}
