package cntool

import (
	"context"

	"github.com/pkg/errors"
)

// StakeRegistrationRequest registers a stake key on chain. The wallet's
// funds are consolidated into the new base address.
type StakeRegistrationRequest struct {
	PaymentAddress       string
	BaseAddress          string
	PaymentKeyFile       string
	StakeKeyFile         string
	RegistrationCertFile string
	TTLBuffer            uint64
}

// RegisterStakeKey spends the single largest unspent output at the payment
// address, locks the key deposit, and sends the remainder to the new base
// address. Registration assumes one output suffices; it never accumulates.
func (tk *Toolkit) RegisterStakeKey(ctx context.Context, req StakeRegistrationRequest) (result *WorkflowResult, err error) {
	if err = ValidateAddress(req.BaseAddress, tk.network); err != nil {
		return
	}
	if req.RegistrationCertFile == "" {
		err = errors.New("registration certificate file required")
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
	deposit := params.KeyDeposit

	ttl, err := tk.ttlFor(ctx, ttlBufferOr(req.TTLBuffer))
	if err != nil {
		return
	}

	signing := SigningContext{
		PaymentKeyFile: req.PaymentKeyFile,
		StakeKeyFile:   req.StakeKeyFile,
	}
	certs := []string{req.RegistrationCertFile}

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
			{Address: req.BaseAddress, Lovelace: input.Lovelace - fee - deposit},
		},
		TTL:          ttl,
		Fee:          fee,
		Certificates: certs,
	}

	if err = draft.CheckConservation(deposit); err != nil {
		return
	}

	log.Info().Msgf(
		"stake registration: spending %s (%d), deposit %d, fee %d, %d to %s",
		input.Ref(), input.Lovelace, deposit, fee,
		draft.Outputs[0].Lovelace, req.BaseAddress)

	return tk.runPipeline(ctx, "stake-registration", draft, signing)
}

func ttlBufferOr(buffer uint64) uint64 {
	if buffer == 0 {
		return DefaultTTLBuffer
	}
	return buffer
}
