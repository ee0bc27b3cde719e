// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package origination

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// ErrDecoding indicates malformed ABI encoded caveats.
var ErrDecoding = errors.NewSentinel("invalid caveats encoding")

// caveatTuple is the abi representation of a caveat, field names match the tuple components.
type caveatTuple struct {
	Enforcer common.Address `json:"enforcer"`
	Data     []byte         `json:"data"`
}

// caveatsArgs returns the abi arguments of a single `(address enforcer,bytes data)[]` parameter.
func caveatsArgs() (abi.Arguments, error) {
	typ, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "enforcer", Type: "address"},
		{Name: "data", Type: "bytes"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "new caveats abi type")
	}

	return abi.Arguments{{Name: "caveats", Type: typ}}, nil
}

// DecodeCaveats decodes the standard ABI encoding of a `(address enforcer,bytes data)[]` parameter.
// Only the canonical encoding is accepted; truncated input, out of range or misaligned offsets,
// dirty padding and trailing bytes are all rejected.
func DecodeCaveats(raw []byte) ([]Caveat, error) {
	if len(raw) == 0 || len(raw)%32 != 0 {
		return nil, errors.Wrap(ErrDecoding, "length not a positive multiple of 32", z.Int("length", len(raw)))
	}

	args, err := caveatsArgs()
	if err != nil {
		return nil, err
	}

	out, err := args.Unpack(raw)
	if err != nil {
		return nil, errors.Wrap(ErrDecoding, "unpack caveats", z.Str("reason", err.Error()))
	} else if len(out) != 1 {
		return nil, errors.Wrap(ErrDecoding, "unexpected unpacked values", z.Int("count", len(out)))
	}

	tuples, ok := abi.ConvertType(out[0], new([]caveatTuple)).(*[]caveatTuple)
	if !ok {
		return nil, errors.Wrap(ErrDecoding, "convert caveats")
	}

	// Re-encoding must reproduce the input exactly, otherwise offsets or padding were non-canonical.
	canonical, err := args.Pack(*tuples)
	if err != nil {
		return nil, errors.Wrap(ErrDecoding, "repack caveats", z.Str("reason", err.Error()))
	} else if !bytes.Equal(canonical, raw) {
		return nil, errors.Wrap(ErrDecoding, "non-canonical encoding")
	}

	resp := make([]Caveat, 0, len(*tuples))
	for _, tuple := range *tuples {
		resp = append(resp, Caveat{
			Enforcer: tuple.Enforcer,
			Data:     append([]byte{}, tuple.Data...),
		})
	}

	return resp, nil
}

// EncodeCaveats returns the standard ABI encoding of the caveats as a `(address enforcer,bytes data)[]` parameter.
func EncodeCaveats(caveats []Caveat) ([]byte, error) {
	args, err := caveatsArgs()
	if err != nil {
		return nil, err
	}

	tuples := make([]caveatTuple, 0, len(caveats))
	for _, caveat := range caveats {
		data := caveat.Data
		if data == nil {
			data = []byte{}
		}
		tuples = append(tuples, caveatTuple{Enforcer: caveat.Enforcer, Data: data})
	}

	resp, err := args.Pack(tuples)
	if err != nil {
		return nil, errors.Wrap(err, "pack caveats")
	}

	return resp, nil
}
