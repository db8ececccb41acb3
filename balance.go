package cntool

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// topUtxoDisplayCount bounds the per-query operator listing.
const topUtxoDisplayCount = 10

// GetBalance queries and aggregates the spendable state of address. An
// address with no outputs is a valid result, not an error; callers that
// need at least one input must check Empty and fail with ErrEmptySource.
func GetBalance(ctx context.Context, client LedgerClient, address string) (balance *AddressBalance, err error) {
	balance, err = client.Utxos(ctx, address)
	if err != nil {
		err = errors.Wrapf(err, "balance query for '%s'", address)
		return
	}

	// Largest first, ties keeping query order. The total is recomputed here
	// so the aggregator owns its own contract regardless of the client.
	sort.SliceStable(balance.Utxos, func(i, j int) bool {
		return balance.Utxos[i].Lovelace > balance.Utxos[j].Lovelace
	})
	balance.Total = 0
	for _, u := range balance.Utxos {
		balance.Total += u.Lovelace
	}

	log.Info().Msgf(
		"address %s holds %s ada (%d lovelace) across %d utxos",
		address, FormatAda(balance.Total), balance.Total, balance.Count())

	for i, u := range balance.Utxos {
		if i == topUtxoDisplayCount {
			log.Info().Msgf("... %d more", balance.Count()-topUtxoDisplayCount)
			break
		}
		log.Info().Msgf("  %s  %d lovelace", u.Ref(), u.Lovelace)
	}

	return
}
