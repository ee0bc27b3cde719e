// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"github.com/spf13/pflag"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/eip712"
	"github.com/obolnetwork/starsign/origination"
)

// originationUse is the positional argument usage shared by the hash and sign commands.
const originationUse = "<signerKey> <verifyingContract> <account> <accountNonce> <singleUse> <salt> <deadline> <caveatsRaw> <chainId>"

// originationArgs are the positional arguments of the hash and sign commands.
type originationArgs struct {
	SignerKey         string
	VerifyingContract string
	Account           string
	AccountNonce      string
	SingleUse         string
	Salt              string
	Deadline          string
	CaveatsRaw        string
	ChainID           string
}

// newOriginationArgs returns the arguments from exactly nine positional values.
func newOriginationArgs(args []string) originationArgs {
	return originationArgs{
		SignerKey:         args[0],
		VerifyingContract: args[1],
		Account:           args[2],
		AccountNonce:      args[3],
		SingleUse:         args[4],
		Salt:              args[5],
		Deadline:          args[6],
		CaveatsRaw:        args[7],
		ChainID:           args[8],
	}
}

// domainConfig configures which optional domain fields are present.
type domainConfig struct {
	Name      string
	Version   string
	NoName    bool
	NoVersion bool
}

func bindDomainFlags(flags *pflag.FlagSet, config *domainConfig) {
	flags.StringVar(&config.Name, "domain-name", origination.DefaultDomainName, "EIP-712 domain name.")
	flags.StringVar(&config.Version, "domain-version", origination.DefaultDomainVersion, "EIP-712 domain version.")
	flags.BoolVar(&config.NoName, "no-domain-name", false, "Omit the name field from the EIP-712 domain.")
	flags.BoolVar(&config.NoVersion, "no-domain-version", false, "Omit the version field from the EIP-712 domain.")
}

// typedData returns the origination typed data of the positional arguments in the configured domain.
func (a originationArgs) typedData(config domainConfig) (eip712.TypedData, error) {
	verifyingContract, err := origination.ParseAddress(a.VerifyingContract)
	if err != nil {
		return eip712.TypedData{}, errors.Wrap(err, "parse verifying contract")
	}

	chainID, err := origination.ParseUint256(a.ChainID)
	if err != nil {
		return eip712.TypedData{}, errors.Wrap(err, "parse chain id")
	}

	msg, err := origination.ParseMessage(a.Account, a.AccountNonce, a.SingleUse, a.Salt, a.Deadline, a.CaveatsRaw)
	if err != nil {
		return eip712.TypedData{}, err
	}

	var opts []eip712.DomainOption
	if !config.NoName {
		opts = append(opts, eip712.WithName(config.Name))
	}
	if !config.NoVersion {
		opts = append(opts, eip712.WithVersion(config.Version))
	}
	opts = append(opts,
		eip712.WithChainID(chainID),
		eip712.WithVerifyingContract(verifyingContract),
	)

	return msg.TypedData(eip712.NewDomain(opts...)), nil
}
