// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package eip712

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// typedDataJSON is the standard EIP-712 JSON object as accepted by eth_signTypedData_v4.
type typedDataJSON struct {
	Types       Types          `json:"types"`
	PrimaryType string         `json:"primaryType"`
	Domain      map[string]any `json:"domain"`
	Message     map[string]any `json:"message"`
}

// MarshalJSON returns the standard EIP-712 JSON encoding of the typed data. The types include
// an EIP712Domain entry listing only the present domain fields. Uints are decimal strings,
// bytes are 0x-hex and addresses are checksummed hex.
func (d TypedData) MarshalJSON() ([]byte, error) {
	if d.Domain.err != nil {
		return nil, d.Domain.err
	}

	fields := d.Domain.Fields()
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrSchema, "empty domain")
	}

	if _, ok := d.Types[d.PrimaryType]; !ok {
		return nil, errors.Wrap(ErrSchema, "undefined primary type", z.Str("type", d.PrimaryType))
	}

	types := make(Types, len(d.Types)+1)
	for name, typeFields := range d.Types {
		types[name] = typeFields
	}
	types[domainType] = fields

	domain := make(map[string]any)
	if name, ok := d.Domain.Name(); ok {
		domain["name"] = name
	}
	if version, ok := d.Domain.Version(); ok {
		domain["version"] = version
	}
	if chainID, ok := d.Domain.ChainID(); ok {
		// Wallets expect chainId as a JSON number.
		domain["chainId"] = json.Number(chainID.Dec())
	}
	if addr, ok := d.Domain.VerifyingContract(); ok {
		domain["verifyingContract"] = addr.Hex()
	}

	message, err := d.Types.jsonValue(d.PrimaryType, d.Message)
	if err != nil {
		return nil, err
	}
	messageMap, ok := message.(map[string]any)
	if !ok {
		return nil, errors.Wrap(ErrEncoding, "message not a struct")
	}

	resp, err := json.Marshal(typedDataJSON{
		Types:       types,
		PrimaryType: d.PrimaryType,
		Domain:      domain,
		Message:     messageMap,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal typed data")
	}

	return resp, nil
}

// jsonValue converts a value of the provided type to its JSON form.
func (t Types) jsonValue(typ string, v Value) (any, error) {
	if fields, ok := t[typ]; ok {
		if v.kind != KindStruct {
			return nil, kindMismatch(typ, v)
		}

		resp := make(map[string]any, len(fields))
		for _, field := range fields {
			fv, ok := v.fields[field.Name]
			if !ok {
				return nil, errors.Wrap(ErrEncoding, "missing field", z.Str("type", typ), z.Str("field", field.Name))
			}

			jv, err := t.jsonValue(field.Type, fv)
			if err != nil {
				return nil, err
			}
			resp[field.Name] = jv
		}

		return resp, nil
	}

	if strings.HasSuffix(typ, "]") {
		elemType, _, err := splitArray(typ)
		if err != nil {
			return nil, err
		}
		if v.kind != KindArray {
			return nil, kindMismatch(typ, v)
		}

		resp := make([]any, 0, len(v.elems))
		for _, elem := range v.elems {
			jv, err := t.jsonValue(elemType, elem)
			if err != nil {
				return nil, err
			}
			resp = append(resp, jv)
		}

		return resp, nil
	}

	switch v.kind {
	case KindAddress:
		return v.addr.Hex(), nil
	case KindUint:
		if v.num == nil {
			return nil, errors.Wrap(ErrEncoding, "missing integer", z.Str("type", typ))
		}

		return v.num.String(), nil
	case KindBool:
		return v.flag, nil
	case KindFixedBytes, KindBytes:
		return hexutil.Encode(v.raw), nil
	case KindString:
		return v.str, nil
	default:
		return nil, kindMismatch(typ, v)
	}
}
