package cntool

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
)

// ValidateAddress checks that an operator-supplied payment address is
// well-formed bech32 and carries the prefix of the selected network.
// Shelley addresses exceed the 90 character bech32 limit, hence DecodeNoLimit.
func ValidateAddress(address string, network Network) (err error) {
	params, err := network.Params()
	if err != nil {
		return
	}

	if address == "" {
		err = errors.Wrap(ErrAddressInvalid, "address is empty")
		return
	}

	hrp, data, err2 := bech32.DecodeNoLimit(address)
	if err2 != nil {
		err = errors.Wrapf(ErrAddressInvalid, "'%s': %v", address, err2)
		return
	}

	if _, err2 = bech32.ConvertBits(data, 5, 8, false); err2 != nil {
		err = errors.Wrapf(ErrAddressInvalid, "'%s': %v", address, err2)
		return
	}

	if hrp != params.AddressPrefix {
		err = errors.Wrapf(ErrAddressInvalid,
			"'%s': prefix '%s' does not match network %s ('%s')",
			address, hrp, network, params.AddressPrefix)
	}

	return
}

// ValidateStakeAddress is ValidateAddress for reward account addresses.
func ValidateStakeAddress(address string, network Network) (err error) {
	params, err := network.Params()
	if err != nil {
		return
	}

	if !strings.HasPrefix(address, params.DelegationPrefix) {
		err = errors.Wrapf(ErrAddressInvalid,
			"'%s': expected prefix '%s'", address, params.DelegationPrefix)
		return
	}

	if _, _, err2 := bech32.DecodeNoLimit(address); err2 != nil {
		err = errors.Wrapf(ErrAddressInvalid, "'%s': %v", address, err2)
	}

	return
}
