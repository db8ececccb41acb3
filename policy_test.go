package cntool

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBalance(address string, values ...uint64) *AddressBalance {
	balance := &AddressBalance{Address: address}
	for i, v := range values {
		balance.Utxos = append(balance.Utxos, Utxo{
			TxHash:   "aa00",
			Index:    uint32(i),
			Lovelace: v,
		})
		balance.Total += v
	}
	return balance
}

func TestSelectInputsStopsEarlyWhenFeeDeducted(t *testing.T) {
	balance := testBalance("src", 500, 300, 200)

	inputs, accumulated := selectInputs(balance, 400, FeePayerRecipient)
	assert.Len(t, inputs, 1)
	assert.Equal(t, uint64(500), accumulated)

	inputs, accumulated = selectInputs(balance, 600, FeePayerRecipient)
	assert.Len(t, inputs, 2)
	assert.Equal(t, uint64(800), accumulated)
}

func TestSelectInputsConsumesAllWhenSenderPays(t *testing.T) {
	balance := testBalance("src", 500, 300, 200)

	inputs, accumulated := selectInputs(balance, 400, FeePayerSender)
	assert.Len(t, inputs, 3)
	assert.Equal(t, uint64(1000), accumulated)
}

func TestPlanSpendEntireBalanceSenderPays(t *testing.T) {
	// Two outputs {500, 300}, request the entire balance sender-pays with
	// fee 10: both inputs consumed, a single destination output of 790.
	ledger := &fakeLedger{fee: 10}

	draft, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		SendAll:            true,
		FeePayer:           FeePayerSender,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	require.Nil(t, err)

	assert.Len(t, draft.Inputs, 2)
	require.Len(t, draft.Outputs, 1)
	assert.Equal(t, TxOut{Address: "dst", Lovelace: 790}, draft.Outputs[0])
	assert.Equal(t, uint64(10), draft.Fee)
	assert.Nil(t, draft.CheckConservation(0))
}

func TestPlanSpendEntireBalanceFeeExceedsTotal(t *testing.T) {
	ledger := &fakeLedger{fee: 900}

	_, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		SendAll:            true,
		FeePayer:           FeePayerSender,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	assert.True(t, errors.Is(err, ErrNotEnoughFunds))
}

func TestPlanSpendSenderPaysWithChange(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	draft, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		AmountLovelace:     600,
		FeePayer:           FeePayerSender,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	require.Nil(t, err)

	assert.Len(t, draft.Inputs, 2)
	require.Len(t, draft.Outputs, 2)
	assert.Equal(t, TxOut{Address: "dst", Lovelace: 600}, draft.Outputs[0])
	assert.Equal(t, TxOut{Address: "src", Lovelace: 190}, draft.Outputs[1])
	assert.Nil(t, draft.CheckConservation(0))
	assert.Equal(t, 2, ledger.lastFeeReq.OutputCount)
}

func TestPlanSpendSenderPaysInsufficient(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	_, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		AmountLovelace:     795,
		FeePayer:           FeePayerSender,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, uint64(805), insufficient.Required)
	assert.Equal(t, uint64(800), insufficient.Available)
	assert.Equal(t, uint64(5), insufficient.Shortfall())
	assert.True(t, errors.Is(err, ErrNotEnoughFunds))
}

func TestPlanSpendDeductFee(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	draft, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		AmountLovelace:     400,
		FeePayer:           FeePayerRecipient,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	require.Nil(t, err)

	// Early stop: the first utxo already covers 400.
	assert.Len(t, draft.Inputs, 1)
	require.Len(t, draft.Outputs, 2)
	assert.Equal(t, TxOut{Address: "dst", Lovelace: 390}, draft.Outputs[0])
	assert.Equal(t, TxOut{Address: "src", Lovelace: 100}, draft.Outputs[1])
	assert.Nil(t, draft.CheckConservation(0))
}

func TestPlanSpendDeductFeeBelowFee(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	_, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300),
		DestinationAddress: "dst",
		AmountLovelace:     7,
		FeePayer:           FeePayerRecipient,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, uint64(10), insufficient.Required)
	assert.Equal(t, uint64(7), insufficient.Available)
}

func TestPlanSpendEmptySource(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	_, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src"),
		DestinationAddress: "dst",
		AmountLovelace:     100,
		TTL:                100,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	assert.True(t, errors.Is(err, ErrEmptySource))
}

func TestPlanSpendDeterministic(t *testing.T) {
	ledger := &fakeLedger{fee: 23}

	req := SpendRequest{
		Source:             testBalance("src", 900, 400, 100),
		DestinationAddress: "dst",
		AmountLovelace:     1000,
		FeePayer:           FeePayerSender,
		TTL:                500,
		SigningKeyFiles:    []string{"payment.skey"},
		Params:             &ProtocolParams{Raw: []byte("{}")},
	}

	first, err := PlanSpend(context.Background(), ledger, req)
	require.Nil(t, err)
	second, err := PlanSpend(context.Background(), ledger, req)
	require.Nil(t, err)

	assert.Equal(t, first, second)
}

func TestPlanSpendFeeUsesActualCounts(t *testing.T) {
	ledger := &fakeLedger{fee: 10}

	_, err := PlanSpend(context.Background(), ledger, SpendRequest{
		Source:             testBalance("src", 500, 300, 200),
		DestinationAddress: "dst",
		AmountLovelace:     600,
		FeePayer:           FeePayerRecipient,
		TTL:                777,
		SigningKeyFiles:    []string{"payment.skey"},
		CertificateFiles:   nil,
		Params:             &ProtocolParams{Raw: []byte("{}")},
	})
	require.Nil(t, err)

	assert.Equal(t, 2, ledger.lastFeeReq.InputCount)
	assert.Equal(t, 2, ledger.lastFeeReq.OutputCount)
	assert.Equal(t, uint64(777), ledger.lastFeeReq.TTL)
	assert.Equal(t, []string{"payment.skey"}, ledger.lastFeeReq.SigningKeyFiles)
}
