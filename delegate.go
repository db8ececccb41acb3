package cntool

import (
	"context"

	"github.com/pkg/errors"
)

// DelegationRequest delegates the wallet's stake to a pool via a
// pre-generated delegation certificate. No deposit is involved.
type DelegationRequest struct {
	PaymentAddress     string
	PaymentKeyFile     string
	StakeKeyFile       string
	DelegationCertFile string
	TTLBuffer          uint64
}

// Delegate spends the single largest unspent output, pays only the fee and
// returns the remainder to the payment address.
func (tk *Toolkit) Delegate(ctx context.Context, req DelegationRequest) (result *WorkflowResult, err error) {
	if req.DelegationCertFile == "" {
		err = errors.New("delegation certificate file required")
		return
	}

	balance, err := tk.Balance(ctx, req.PaymentAddress)
	if err != nil {
		return
	}

	input, err := largestUtxo(balance)
	if err != nil {
		return
	}

	params, err := tk.client.ProtocolParams(ctx)
	if err != nil {
		return
	}

	ttl, err := tk.ttlFor(ctx, ttlBufferOr(req.TTLBuffer))
	if err != nil {
		return
	}

	signing := SigningContext{
		PaymentKeyFile: req.PaymentKeyFile,
		StakeKeyFile:   req.StakeKeyFile,
	}
	certs := []string{req.DelegationCertFile}

	fee, err := tk.client.EstimateFee(ctx, FeeRequest{
		InputCount:       1,
		OutputCount:      1,
		TTL:              ttl,
		SigningKeyFiles:  signing.Files(),
		CertificateFiles: certs,
		Params:           params,
	})
	if err != nil {
		return
	}

	if input.Lovelace < fee {
		err = &InsufficientFundsError{Required: fee, Available: input.Lovelace}
		return
	}

	draft := TxDraft{
		Inputs: []Utxo{input},
		Outputs: []TxOut{
			{Address: req.PaymentAddress, Lovelace: input.Lovelace - fee},
		},
		TTL:          ttl,
		Fee:          fee,
		Certificates: certs,
	}

	if err = draft.CheckConservation(0); err != nil {
		return
	}

	log.Info().Msgf(
		"delegation: spending %s (%d), fee %d, %d back to %s",
		input.Ref(), input.Lovelace, fee, draft.Outputs[0].Lovelace, req.PaymentAddress)

	return tk.runPipeline(ctx, "delegation", draft, signing)
}
