package cntool

import (
	"context"

	"github.com/pkg/errors"
)

// FeePayer selects who absorbs the fee.
type FeePayer int

const (
	// FeePayerSender pays the fee on top of the requested amount.
	FeePayerSender FeePayer = iota
	// FeePayerRecipient has the fee deducted from the requested amount.
	FeePayerRecipient
)

func (p FeePayer) String() string {
	if p == FeePayerRecipient {
		return "recipient"
	}
	return "sender"
}

// SpendRequest is the input to PlanSpend: where the funds live, where they
// go, how much, and who pays the fee. SendAll overrides AmountLovelace and
// always nets the fee out of the total.
type SpendRequest struct {
	Source             *AddressBalance
	DestinationAddress string
	ChangeAddress      string
	AmountLovelace     uint64
	SendAll            bool
	FeePayer           FeePayer

	TTL              uint64
	SigningKeyFiles  []string
	CertificateFiles []string
	Params           *ProtocolParams
}

// selectInputs walks the descending utxo sequence accumulating inputs.
// When the fee comes out of the requested amount the walk stops at the
// first utxo covering it, keeping the input count (and so the fee) minimal.
// When the sender pays on top, the exact leftover is unknown until the fee
// is fixed, so the whole sequence is consumed.
func selectInputs(balance *AddressBalance, requested uint64, payer FeePayer) (inputs []Utxo, accumulated uint64) {
	for _, u := range balance.Utxos {
		inputs = append(inputs, u)
		accumulated += u.Lovelace
		if payer == FeePayerRecipient && accumulated >= requested {
			break
		}
	}
	return
}

// PlanSpend selects inputs, estimates the fee from the actual counts, runs
// the sufficiency checks and returns a balanced draft: one destination
// output plus a change output back to the source only when the leftover is
// nonzero. The draft is never built here; an insufficiency aborts first.
func PlanSpend(ctx context.Context, client LedgerClient, req SpendRequest) (draft TxDraft, err error) {
	if req.Source == nil || req.Source.Empty() {
		err = errors.Wrapf(ErrEmptySource, "'%s'", req.sourceAddress())
		return
	}

	requested := req.AmountLovelace
	if req.SendAll {
		requested = req.Source.Total
	}
	if requested == 0 {
		err = errors.Wrap(ErrInvalidAmount, "requested amount is zero")
		return
	}

	payer := req.FeePayer
	if req.SendAll {
		// The entire balance leaves the wallet, so the fee can only come
		// out of the requested amount.
		payer = FeePayerRecipient
	}

	inputs, accumulated := selectInputs(req.Source, requested, payer)

	if accumulated < requested {
		err = &InsufficientFundsError{Required: requested, Available: accumulated}
		return
	}

	outputCount := 1
	if accumulated > requested {
		outputCount = 2
	}

	fee, err := client.EstimateFee(ctx, FeeRequest{
		InputCount:       len(inputs),
		OutputCount:      outputCount,
		TTL:              req.TTL,
		SigningKeyFiles:  req.SigningKeyFiles,
		CertificateFiles: req.CertificateFiles,
		Params:           req.Params,
	})
	if err != nil {
		return
	}

	var destination, change uint64
	switch payer {
	case FeePayerSender:
		if accumulated < requested+fee {
			err = &InsufficientFundsError{Required: requested + fee, Available: accumulated}
			return
		}
		destination = requested
		change = accumulated - requested - fee
	case FeePayerRecipient:
		if requested < fee {
			err = &InsufficientFundsError{Required: fee, Available: requested}
			return
		}
		destination = requested - fee
		change = accumulated - requested
	}

	outputs := []TxOut{{Address: req.DestinationAddress, Lovelace: destination}}
	if change > 0 {
		outputs = append(outputs, TxOut{Address: req.changeAddress(), Lovelace: change})
	}

	draft = TxDraft{
		Inputs:       inputs,
		Outputs:      outputs,
		TTL:          req.TTL,
		Fee:          fee,
		Certificates: req.CertificateFiles,
	}

	if err = draft.CheckConservation(0); err != nil {
		draft = TxDraft{}
		return
	}

	log.Info().Msgf(
		"spend planned: %d inputs (%d lovelace), %d to %s, %d change, fee %d (%s pays)",
		len(inputs), accumulated, destination, req.DestinationAddress, change, fee, payer)

	return
}

func (req SpendRequest) sourceAddress() string {
	if req.Source != nil {
		return req.Source.Address
	}
	return ""
}

func (req SpendRequest) changeAddress() string {
	if req.ChangeAddress != "" {
		return req.ChangeAddress
	}
	return req.sourceAddress()
}

// largestUtxo returns the single highest value unspent output. The
// certificate workflows spend exactly one input and consolidate the rest of
// the value back to the wallet.
func largestUtxo(balance *AddressBalance) (utxo Utxo, err error) {
	if balance == nil || balance.Empty() {
		err = errors.Wrapf(ErrEmptySource, "'%s'", balanceAddress(balance))
		return
	}
	// Sorted descending on query.
	utxo = balance.Utxos[0]
	return
}

func balanceAddress(balance *AddressBalance) string {
	if balance != nil {
		return balance.Address
	}
	return ""
}
