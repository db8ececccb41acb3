package cntool

import (
	"context"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// fakeLedger scripts LedgerClient responses so workflows run without a node.
type fakeLedger struct {
	tip        Tip
	tipSeq     []Tip
	utxos      map[string][]Utxo
	params     ProtocolParams
	fee        uint64
	feeErr     error
	buildFails int
	signErr    error
	submitErr  error

	tipCalls    int
	buildCalls  int
	signCalls   int
	submitCalls int
	lastFeeReq  FeeRequest
	lastBuild   *TxDraft
}

var _ LedgerClient = &fakeLedger{}

func (f *fakeLedger) Tip(ctx context.Context) (Tip, error) {
	f.tipCalls++
	if len(f.tipSeq) > 0 {
		tip := f.tipSeq[0]
		if len(f.tipSeq) > 1 {
			f.tipSeq = f.tipSeq[1:]
		}
		return tip, nil
	}
	return f.tip, nil
}

func (f *fakeLedger) Utxos(ctx context.Context, address string) (*AddressBalance, error) {
	utxos := append([]Utxo{}, f.utxos[address]...)
	balance := &AddressBalance{Address: address, Utxos: utxos}
	for _, u := range utxos {
		balance.Total += u.Lovelace
	}
	return balance, nil
}

func (f *fakeLedger) ProtocolParams(ctx context.Context) (*ProtocolParams, error) {
	params := f.params
	if len(params.Raw) == 0 {
		params.Raw = []byte("{}")
	}
	return &params, nil
}

func (f *fakeLedger) EstimateFee(ctx context.Context, req FeeRequest) (uint64, error) {
	f.lastFeeReq = req
	if f.feeErr != nil {
		return 0, f.feeErr
	}
	return f.fee, nil
}

func (f *fakeLedger) BuildRaw(ctx context.Context, req BuildRequest) ([]byte, error) {
	f.buildCalls++
	draft := req.Draft
	f.lastBuild = &draft
	if f.buildFails > 0 {
		f.buildFails--
		return nil, errors.Wrap(ErrBuildFailed, "scripted failure")
	}
	return []byte(`{"type":"TxUnsignedShelley","description":"","cborHex":"00"}`), nil
}

func (f *fakeLedger) Sign(ctx context.Context, req SignRequest) ([]byte, error) {
	f.signCalls++
	if f.signErr != nil {
		return nil, f.signErr
	}
	return testSignedEnvelope(), nil
}

func (f *fakeLedger) Submit(ctx context.Context, req SubmitRequest) error {
	f.submitCalls++
	return f.submitErr
}

// testSignedEnvelope builds a structurally valid signed tx envelope whose
// body element hashes deterministically.
func testSignedEnvelope() []byte {
	body, _ := cbor.Marshal(map[int]int{0: 1})
	witnesses, _ := cbor.Marshal([]int{})
	raw, _ := cbor.Marshal([]cbor.RawMessage{body, witnesses})
	return []byte(fmt.Sprintf(
		`{"type":"TxSignedShelley","description":"","cborHex":"%x"}`, raw))
}

// testAddr encodes a short payload as a mainnet-prefixed bech32 address.
func testAddr(t *testing.T, seed byte) string {
	t.Helper()

	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = seed
	}

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		t.Fatalf("convert bits: %v", err)
	}

	encoded, err := bech32.Encode("addr", converted)
	if err != nil {
		t.Fatalf("bech32 encode: %v", err)
	}

	return encoded
}

func newTestToolkit(t *testing.T, ledger *fakeLedger) *Toolkit {
	t.Helper()

	tk, err := NewToolkit(&ToolkitOptions{
		Client:  ledger,
		Network: NetworkMainNet,
	})
	if err != nil {
		t.Fatalf("new toolkit: %v", err)
	}
	return tk
}
