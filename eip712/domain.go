// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package eip712

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// Domain is the EIP-712 signing domain. Only fields set via options are present,
// absent fields are omitted from both the domain type and its hash.
type Domain struct {
	name              *string
	version           *string
	chainID           *uint256.Int
	verifyingContract *common.Address
	err               error
}

// DomainOption sets a domain field.
type DomainOption func(*Domain)

// WithName sets the domain name.
func WithName(name string) DomainOption {
	return func(d *Domain) {
		d.name = &name
	}
}

// WithVersion sets the domain version.
func WithVersion(version string) DomainOption {
	return func(d *Domain) {
		d.version = &version
	}
}

// WithChainID sets the domain chain ID. A nil chain ID is an error returned by Separator.
func WithChainID(chainID *uint256.Int) DomainOption {
	return func(d *Domain) {
		if chainID == nil {
			d.err = errors.Wrap(ErrEncoding, "missing integer", z.Str("field", "chainId"))
			return
		}
		d.chainID = new(uint256.Int).Set(chainID)
	}
}

// WithVerifyingContract sets the domain verifying contract address.
func WithVerifyingContract(addr common.Address) DomainOption {
	return func(d *Domain) {
		d.verifyingContract = &addr
	}
}

// NewDomain returns a domain with the provided fields present.
func NewDomain(opts ...DomainOption) Domain {
	var d Domain
	for _, opt := range opts {
		opt(&d)
	}

	return d
}

// Name returns the domain name and true if present.
func (d Domain) Name() (string, bool) {
	if d.name == nil {
		return "", false
	}

	return *d.name, true
}

// Version returns the domain version and true if present.
func (d Domain) Version() (string, bool) {
	if d.version == nil {
		return "", false
	}

	return *d.version, true
}

// ChainID returns a copy of the domain chain ID and true if present.
func (d Domain) ChainID() (*uint256.Int, bool) {
	if d.chainID == nil {
		return nil, false
	}

	return new(uint256.Int).Set(d.chainID), true
}

// VerifyingContract returns the domain verifying contract and true if present.
func (d Domain) VerifyingContract() (common.Address, bool) {
	if d.verifyingContract == nil {
		return common.Address{}, false
	}

	return *d.verifyingContract, true
}

// Fields returns the EIP712Domain fields of the present domain values in canonical order.
func (d Domain) Fields() []Field {
	var fields []Field
	if d.name != nil {
		fields = append(fields, Field{Name: "name", Type: "string"})
	}
	if d.version != nil {
		fields = append(fields, Field{Name: "version", Type: "string"})
	}
	if d.chainID != nil {
		fields = append(fields, Field{Name: "chainId", Type: "uint256"})
	}
	if d.verifyingContract != nil {
		fields = append(fields, Field{Name: "verifyingContract", Type: "address"})
	}

	return fields
}

// Value returns the domain as a struct value of the present fields.
func (d Domain) Value() Value {
	values := make(map[string]Value)
	if d.name != nil {
		values["name"] = String(*d.name)
	}
	if d.version != nil {
		values["version"] = String(*d.version)
	}
	if d.chainID != nil {
		values["chainId"] = Uint(d.chainID)
	}
	if d.verifyingContract != nil {
		values["verifyingContract"] = Address(*d.verifyingContract)
	}

	return Struct(values)
}

// Separator returns the domain separator, the struct hash of the synthesized EIP712Domain type.
func (d Domain) Separator() ([32]byte, error) {
	if d.err != nil {
		return [32]byte{}, d.err
	}

	fields := d.Fields()
	if len(fields) == 0 {
		return [32]byte{}, errors.Wrap(ErrSchema, "empty domain")
	}

	return Types{domainType: fields}.HashStruct(domainType, d.Value())
}
