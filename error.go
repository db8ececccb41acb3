package cntool

import (
	"fmt"
)

var (
	ErrQueryFailed         = fmt.Errorf("ledger query failed")
	ErrEmptySource         = fmt.Errorf("no unspent outputs at source address")
	ErrNotEnoughFunds      = fmt.Errorf("not enough funds")
	ErrFeeEstimationFailed = fmt.Errorf("fee estimation failed")
	ErrBuildFailed         = fmt.Errorf("transaction build failed")
	ErrSignFailed          = fmt.Errorf("transaction sign failed")
	ErrSubmitFailed        = fmt.Errorf("transaction submit failed")
	ErrEncryptionFailed    = fmt.Errorf("key file encryption failed")
	ErrDecryptionFailed    = fmt.Errorf("key file decryption failed")
	ErrInvalidAmount       = fmt.Errorf("invalid amount")
	ErrInvalidCliResponse  = fmt.Errorf("unexpected cardano-cli response")
	ErrAddressInvalid      = fmt.Errorf("invalid address")
	ErrNetworkInvalid      = fmt.Errorf("invalid network")
	ErrNotBalanced         = fmt.Errorf("transaction does not balance")
	ErrPassphraseTooShort  = fmt.Errorf("passphrase must be at least 8 characters")
)

// InsufficientFundsError reports a failed sufficiency check along with the
// numbers the operator needs to correct the request.
type InsufficientFundsError struct {
	Required  uint64
	Available uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"not enough funds: need %d lovelace, have %d (short %d)",
		e.Required, e.Available, e.Shortfall())
}

func (e *InsufficientFundsError) Shortfall() uint64 {
	if e.Required < e.Available {
		return 0
	}
	return e.Required - e.Available
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrNotEnoughFunds
}
