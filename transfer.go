package cntool

import (
	"context"

	"github.com/pkg/errors"
)

// TransferRequest describes a plain payment. Amount is the operator string:
// a decimal ADA value, or "all" for the entire balance.
type TransferRequest struct {
	SourceAddress      string
	DestinationAddress string
	Amount             string
	FeePayer           FeePayer
	PaymentKeyFile     string
	TTLBuffer          uint64
}

// Transfer runs the full payment workflow: resolve the amount, aggregate
// the source balance, plan a balanced output set, then build, sign and
// submit. Any stage failure aborts without retry and reports the stage.
func (tk *Toolkit) Transfer(ctx context.Context, req TransferRequest) (result *WorkflowResult, err error) {
	if err = ValidateAddress(req.DestinationAddress, tk.network); err != nil {
		return
	}

	amount, sendAll, err := ParseLovelace(req.Amount)
	if err != nil {
		return
	}
	if !sendAll && amount == 0 {
		err = errors.Wrap(ErrInvalidAmount, "amount is zero")
		return
	}

	balance, err := tk.Balance(ctx, req.SourceAddress)
	if err != nil {
		return
	}
	if balance.Empty() {
		err = errors.Wrapf(ErrEmptySource, "'%s'", req.SourceAddress)
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

	signing := SigningContext{PaymentKeyFile: req.PaymentKeyFile}

	draft, err := PlanSpend(ctx, tk.client, SpendRequest{
		Source:             balance,
		DestinationAddress: req.DestinationAddress,
		AmountLovelace:     amount,
		SendAll:            sendAll,
		FeePayer:           req.FeePayer,
		TTL:                ttl,
		SigningKeyFiles:    signing.Files(),
		Params:             params,
	})
	if err != nil {
		return
	}

	return tk.runPipeline(ctx, "transfer", draft, signing)
}
