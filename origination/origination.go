// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package origination defines the Starport Origination EIP-712 schema and message.
package origination

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/obolnetwork/starsign/eip712"
)

const (
	// PrimaryType is the primary type of origination messages.
	PrimaryType = "Origination"
	// CaveatType is the struct type of caveats.
	CaveatType = "Caveat"

	// DefaultDomainName is the Starport domain name.
	DefaultDomainName = "Starport"
	// DefaultDomainVersion is the Starport domain version.
	DefaultDomainVersion = "0"
)

// Types returns the origination schema:
//
//	Origination(address account,uint256 accountNonce,bool singleUse,bytes32 salt,uint256 deadline,Caveat[] caveats)
//	Caveat(address enforcer,bytes data)
func Types() eip712.Types {
	return eip712.Types{
		PrimaryType: {
			{Name: "account", Type: "address"},
			{Name: "accountNonce", Type: "uint256"},
			{Name: "singleUse", Type: "bool"},
			{Name: "salt", Type: "bytes32"},
			{Name: "deadline", Type: "uint256"},
			{Name: "caveats", Type: CaveatType + "[]"},
		},
		CaveatType: {
			{Name: "enforcer", Type: "address"},
			{Name: "data", Type: "bytes"},
		},
	}
}

// Caveat is an enforcement rule attached to an origination.
type Caveat struct {
	Enforcer common.Address
	Data     []byte
}

// Value returns the caveat as an EIP-712 struct value.
func (c Caveat) Value() eip712.Value {
	return eip712.Struct(map[string]eip712.Value{
		"enforcer": eip712.Address(c.Enforcer),
		"data":     eip712.Bytes(c.Data),
	})
}

// Message is an origination authorization.
type Message struct {
	Account      common.Address
	AccountNonce *uint256.Int
	SingleUse    bool
	Salt         [32]byte
	Deadline     *uint256.Int
	Caveats      []Caveat
}

// Value returns the message as an EIP-712 struct value, the caveat order is preserved.
func (m Message) Value() eip712.Value {
	caveats := make([]eip712.Value, 0, len(m.Caveats))
	for _, caveat := range m.Caveats {
		caveats = append(caveats, caveat.Value())
	}

	return eip712.Struct(map[string]eip712.Value{
		"account":      eip712.Address(m.Account),
		"accountNonce": eip712.Uint(m.AccountNonce),
		"singleUse":    eip712.Bool(m.SingleUse),
		"salt":         eip712.FixedBytes(m.Salt[:]),
		"deadline":     eip712.Uint(m.Deadline),
		"caveats":      eip712.Array(caveats...),
	})
}

// TypedData returns the complete typed data of the message in the provided domain.
func (m Message) TypedData(domain eip712.Domain) eip712.TypedData {
	return eip712.TypedData{
		Types:       Types(),
		PrimaryType: PrimaryType,
		Domain:      domain,
		Message:     m.Value(),
	}
}

// Hash returns the EIP-712 signing digest of the message in the provided domain.
func (m Message) Hash(domain eip712.Domain) ([32]byte, error) {
	return eip712.HashTypedData(m.TypedData(domain))
}

// Domain returns the Starport domain for the verifying contract and chain.
func Domain(verifyingContract common.Address, chainID *uint256.Int) eip712.Domain {
	return eip712.NewDomain(
		eip712.WithName(DefaultDomainName),
		eip712.WithVersion(DefaultDomainVersion),
		eip712.WithChainID(chainID),
		eip712.WithVerifyingContract(verifyingContract),
	)
}
