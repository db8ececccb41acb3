package cntool

import (
	"context"

	"github.com/pkg/errors"
)

// PoolRegistrationRequest registers a stake pool: the registration
// certificate plus the owner's pledge delegation certificate go on chain in
// one transaction, signed by payment, cold and stake keys.
type PoolRegistrationRequest struct {
	PaymentAddress       string
	PaymentKeyFile       string
	ColdKeyFile          string
	StakeKeyFile         string
	RegistrationCertFile string
	PledgeCertFile       string
	TTLBuffer            uint64
}

// RegisterPool mirrors stake key registration but with the pool deposit and
// both certificates, returning change to the payment address itself.
func (tk *Toolkit) RegisterPool(ctx context.Context, req PoolRegistrationRequest) (result *WorkflowResult, err error) {
	if req.RegistrationCertFile == "" || req.PledgeCertFile == "" {
		err = errors.New("pool registration and pledge certificate files required")
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
	deposit := params.PoolDeposit

	ttl, err := tk.ttlFor(ctx, ttlBufferOr(req.TTLBuffer))
	if err != nil {
		return
	}

	signing := SigningContext{
		PaymentKeyFile: req.PaymentKeyFile,
		StakeKeyFile:   req.StakeKeyFile,
		ColdKeyFile:    req.ColdKeyFile,
	}
	certs := []string{req.RegistrationCertFile, req.PledgeCertFile}

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

	if input.Lovelace < fee+deposit {
		err = &InsufficientFundsError{Required: fee + deposit, Available: input.Lovelace}
		return
	}

	draft := TxDraft{
		Inputs: []Utxo{input},
		Outputs: []TxOut{
			{Address: req.PaymentAddress, Lovelace: input.Lovelace - fee - deposit},
		},
		TTL:          ttl,
		Fee:          fee,
		Certificates: certs,
	}

	if err = draft.CheckConservation(deposit); err != nil {
		return
	}

	log.Info().Msgf(
		"pool registration: spending %s (%d), deposit %d, fee %d, %d back to %s",
		input.Ref(), input.Lovelace, deposit, fee,
		draft.Outputs[0].Lovelace, req.PaymentAddress)

	return tk.runPipeline(ctx, "pool-registration", draft, signing)
}
