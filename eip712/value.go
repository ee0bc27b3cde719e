// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind is the kind of an encodable value.
type Kind int

const (
	KindInvalid Kind = iota
	KindAddress
	KindUint
	KindBool
	KindFixedBytes
	KindBytes
	KindString
	KindStruct
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindFixedBytes:
		return "fixed_bytes"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is an immutable typed EIP-712 value. It is one of a primitive,
// dynamic bytes or string, a struct of named values, or an array of values.
// The zero value is invalid.
type Value struct {
	kind   Kind
	addr   common.Address
	num    *big.Int
	flag   bool
	raw    []byte
	str    string
	fields map[string]Value
	elems  []Value
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Address returns an address value.
func Address(addr common.Address) Value {
	return Value{kind: KindAddress, addr: addr}
}

// Uint returns an unsigned integer value. A nil integer is missing and rejected when encoded.
func Uint(u *uint256.Int) Value {
	if u == nil {
		return Value{kind: KindUint}
	}

	return Value{kind: KindUint, num: u.ToBig()}
}

// Uint64 returns an unsigned integer value.
func Uint64(u uint64) Value {
	return Value{kind: KindUint, num: new(big.Int).SetUint64(u)}
}

// BigUint returns an unsigned integer value from a big integer.
// Nil, negative or too wide integers are rejected when encoded.
func BigUint(b *big.Int) Value {
	if b == nil {
		return Value{kind: KindUint}
	}

	return Value{kind: KindUint, num: new(big.Int).Set(b)}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// FixedBytes returns a bytesN value, the length must match N when encoded.
func FixedBytes(b []byte) Value {
	return Value{kind: KindFixedBytes, raw: clone(b)}
}

// Bytes returns a dynamic bytes value.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: clone(b)}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Struct returns a struct value with the provided named field values.
func Struct(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for name, field := range fields {
		cp[name] = field
	}

	return Value{kind: KindStruct, fields: cp}
}

// Array returns an array value of the provided elements.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: append([]Value{}, elems...)}
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
