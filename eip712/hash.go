// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package eip712 implements EIP-712 structured data hashing over a caller supplied schema of
// nested structs, arrays and primitive types. See https://eips.ethereum.org/EIPS/eip-712.
package eip712

import (
	"bytes"

	"golang.org/x/crypto/sha3"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

var (
	// ErrSchema indicates an undefined, recursive or malformed type, or an empty domain.
	ErrSchema = errors.NewSentinel("invalid schema")
	// ErrEncoding indicates a value that does not fit its declared type.
	ErrEncoding = errors.NewSentinel("invalid value encoding")
)

// TypedData is a complete EIP-712 message: the schema, the primary type, the domain and the message value.
type TypedData struct {
	Types       Types
	PrimaryType string
	Domain      Domain
	Message     Value
}

// HashTypedData returns the EIP-712 signing digest of the typed data.
func HashTypedData(data TypedData) ([32]byte, error) {
	if data.PrimaryType == domainType {
		return [32]byte{}, errors.Wrap(ErrSchema, "reserved primary type", z.Str("type", domainType))
	}
	if _, ok := data.Types[domainType]; ok {
		return [32]byte{}, errors.Wrap(ErrSchema, "reserved type name", z.Str("type", domainType))
	}

	if err := data.Types.Validate(); err != nil {
		return [32]byte{}, err
	}

	domainHash, err := data.Domain.Separator()
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "domain separator")
	}

	structHash, err := data.Types.HashStruct(data.PrimaryType, data.Message)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "hash message", z.Str("primary_type", data.PrimaryType))
	}

	return Digest(domainHash, structHash), nil
}

// Digest returns keccak256(0x19 0x01 ‖ domainSeparator ‖ structHash).
func Digest(domainSeparator, structHash [32]byte) [32]byte {
	buf := make([]byte, 0, 66)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domainSeparator[:]...)
	buf = append(buf, structHash[:]...)

	return keccakHash(buf)
}

// HashStruct returns the struct hash of the value of the named struct type:
// keccak256(typeHash ‖ encodeField(f1) ‖ … ‖ encodeField(fn)).
func (t Types) HashStruct(name string, v Value) ([32]byte, error) {
	fields, ok := t[name]
	if !ok {
		return [32]byte{}, errors.Wrap(ErrSchema, "undefined type", z.Str("type", name))
	}

	if v.kind != KindStruct {
		return [32]byte{}, kindMismatch(name, v)
	}

	for key := range v.fields {
		if !hasField(fields, key) {
			return [32]byte{}, errors.Wrap(ErrEncoding, "undeclared field", z.Str("type", name), z.Str("field", key))
		}
	}

	typeHash, err := t.TypeHash(name)
	if err != nil {
		return [32]byte{}, err
	}

	var buf bytes.Buffer
	_, _ = buf.Write(typeHash[:])
	for _, field := range fields {
		fv, ok := v.fields[field.Name]
		if !ok {
			return [32]byte{}, errors.Wrap(ErrEncoding, "missing field", z.Str("type", name), z.Str("field", field.Name))
		}

		word, err := t.encodeField(field.Type, fv)
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "encode field", z.Str("field", field.Name))
		}
		_, _ = buf.Write(word[:])
	}

	return keccakHash(buf.Bytes()), nil
}

// encodeField returns the 32 byte contribution of a value of the provided type to its parent struct hash.
func (t Types) encodeField(typ string, v Value) ([32]byte, error) {
	if _, ok := t[typ]; ok {
		return t.HashStruct(typ, v)
	}

	switch {
	case len(typ) > 0 && typ[len(typ)-1] == ']':
		elemType, size, err := splitArray(typ)
		if err != nil {
			return [32]byte{}, err
		}

		if v.kind != KindArray {
			return [32]byte{}, kindMismatch(typ, v)
		}
		if size >= 0 && len(v.elems) != size {
			return [32]byte{}, errors.Wrap(ErrEncoding, "invalid array length",
				z.Str("type", typ), z.Int("length", len(v.elems)))
		}

		var buf bytes.Buffer
		for i, elem := range v.elems {
			word, err := t.encodeField(elemType, elem)
			if err != nil {
				return [32]byte{}, errors.Wrap(err, "encode array element", z.Int("index", i))
			}
			_, _ = buf.Write(word[:])
		}

		return keccakHash(buf.Bytes()), nil
	case typ == "bytes":
		if v.kind != KindBytes {
			return [32]byte{}, kindMismatch(typ, v)
		}

		return keccakHash(v.raw), nil
	case typ == "string":
		if v.kind != KindString {
			return [32]byte{}, kindMismatch(typ, v)
		}

		return keccakHash([]byte(v.str)), nil
	default:
		return encodePrimitive(typ, v)
	}
}

func hasField(fields []Field, name string) bool {
	for _, field := range fields {
		if field.Name == name {
			return true
		}
	}

	return false
}

// keccakHash returns the keccak256 hash of the data.
func keccakHash(data []byte) [32]byte {
	var resp [32]byte

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	copy(resp[:], h.Sum(nil))

	return resp
}
