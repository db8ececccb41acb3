package cntool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceAggregates(t *testing.T) {
	ledger := &fakeLedger{
		utxos: map[string][]Utxo{
			"src": {
				{TxHash: "aa", Index: 0, Lovelace: 300},
				{TxHash: "bb", Index: 1, Lovelace: 500},
				{TxHash: "cc", Index: 2, Lovelace: 200},
			},
		},
	}

	balance, err := GetBalance(context.Background(), ledger, "src")
	require.Nil(t, err)

	assert.Equal(t, uint64(1000), balance.Total)
	assert.Equal(t, 3, balance.Count())

	var total uint64
	for i, u := range balance.Utxos {
		total += u.Lovelace
		if i > 0 {
			assert.GreaterOrEqual(t, balance.Utxos[i-1].Lovelace, u.Lovelace)
		}
	}
	assert.Equal(t, balance.Total, total)
}

func TestGetBalanceEmptyAddressIsNotAnError(t *testing.T) {
	ledger := &fakeLedger{utxos: map[string][]Utxo{}}

	balance, err := GetBalance(context.Background(), ledger, "nothing-here")
	require.Nil(t, err)

	assert.True(t, balance.Empty())
	assert.Equal(t, uint64(0), balance.Total)
	assert.Equal(t, 0, balance.Count())
}
