package cntool

import (
	"strconv"

	"github.com/pkg/errors"
)

func init() {
	MainNetParams.Name = NetworkMainNet
	MainNetParams.Magic = NetworkMagicMainNet
	MainNetParams.AddressPrefix = "addr"
	MainNetParams.DelegationPrefix = "stake"

	PreProdParams.Name = NetworkPreProd
	PreProdParams.Magic = NetworkMagicPreProd
	PreProdParams.AddressPrefix = "addr_test"
	PreProdParams.DelegationPrefix = "stake_test"

	PrivateNetParams.Name = NetworkPrivateNet
	PrivateNetParams.Magic = NetworkMagicPrivateNet
	PrivateNetParams.AddressPrefix = "addr_test"
	PrivateNetParams.DelegationPrefix = "stake_test"
}

type NetworkParams struct {
	Name             Network
	Magic            NetworkMagic
	AddressPrefix    string
	DelegationPrefix string
}

// Args returns the network selection flags appended to every cardano-cli
// query and submit invocation.
func (p *NetworkParams) Args() []string {
	if p.Name == NetworkMainNet {
		return []string{"--mainnet"}
	}
	return []string{"--testnet-magic", strconv.FormatUint(uint64(p.Magic), 10)}
}

var MainNetParams = NetworkParams{}
var PreProdParams = NetworkParams{}
var PrivateNetParams = NetworkParams{}

const (
	NetworkMainNet    Network = "mainnet"
	NetworkPreProd    Network = "preprod"
	NetworkPrivateNet Network = "privnet"
)

type Network string

func (n Network) Valid() bool {
	return n == NetworkMainNet || n == NetworkPreProd || n == NetworkPrivateNet
}

func (n Network) Validate() (err error) {
	if !n.Valid() {
		err = errors.Wrapf(ErrNetworkInvalid, "'%s'", n)
	}
	return
}

func (n Network) Params() (params *NetworkParams, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	switch n {
	case NetworkMainNet:
		return &MainNetParams, nil
	case NetworkPreProd:
		return &PreProdParams, nil
	case NetworkPrivateNet:
		return &PrivateNetParams, nil
	}

	return
}

type NetworkMagic uint64

const (
	NetworkMagicMainNet    NetworkMagic = 764824073
	NetworkMagicPreProd    NetworkMagic = 1
	NetworkMagicPrivateNet NetworkMagic = 42
)
