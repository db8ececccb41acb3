package cntool

import (
	"fmt"
)

// Utxo is a single unspent output. It is consumed entirely when used as a
// transaction input.
type Utxo struct {
	TxHash   string `json:"txHash"`
	Index    uint32 `json:"index"`
	Lovelace uint64 `json:"lovelace"`
}

// Ref renders the input reference accepted by cardano-cli (--tx-in).
func (u Utxo) Ref() string {
	return fmt.Sprintf("%s#%d", u.TxHash, u.Index)
}

// AddressBalance is the spendable state of one address at query time. Utxos
// are sorted by value, largest first, ties keeping query order. It is
// recomputed on every query and never persisted.
type AddressBalance struct {
	Address string `json:"address"`
	Utxos   []Utxo `json:"utxos"`
	Total   uint64 `json:"total"`
}

func (b *AddressBalance) Count() int {
	return len(b.Utxos)
}

func (b *AddressBalance) Empty() bool {
	return len(b.Utxos) == 0
}

type Tip struct {
	Block uint64 `json:"block"`
	Slot  uint64 `json:"slot"`
}

// ProtocolParams carries the two deposits the workflows do arithmetic with.
// Raw holds the full parameter document as returned by the node, passed
// through untouched to the fee calculator.
type ProtocolParams struct {
	KeyDeposit  uint64 `json:"keyDeposit"`
	PoolDeposit uint64 `json:"poolDeposit"`
	Raw         []byte `json:"-"`
}

type TxOut struct {
	Address  string `json:"address"`
	Lovelace uint64 `json:"lovelace"`
}

// Arg renders the output in cardano-cli form (--tx-out).
func (o TxOut) Arg() string {
	return fmt.Sprintf("%s+%d", o.Address, o.Lovelace)
}

// TxDraft is the fully determined transaction an orchestrator hands to the
// build stage. It must not be modified once signing starts.
type TxDraft struct {
	Inputs       []Utxo
	Outputs      []TxOut
	TTL          uint64
	Fee          uint64
	Certificates []string
}

func (d *TxDraft) InputTotal() (total uint64) {
	for _, in := range d.Inputs {
		total += in.Lovelace
	}
	return
}

func (d *TxDraft) OutputTotal() (total uint64) {
	for _, out := range d.Outputs {
		total += out.Lovelace
	}
	return
}

// CheckConservation verifies that inputs exactly cover outputs, fee and any
// certificate deposit. A draft failing this must never reach the signer.
func (d *TxDraft) CheckConservation(deposit uint64) (err error) {
	in := d.InputTotal()
	out := d.OutputTotal() + d.Fee + deposit
	if in != out {
		err = fmt.Errorf(
			"%w: inputs %d != outputs %d + fee %d + deposit %d",
			ErrNotBalanced, in, d.OutputTotal(), d.Fee, deposit)
	}
	return
}

// SigningContext names the key files authorizing a draft. PaymentKeyFile is
// always required; the other two depend on the certificates included.
type SigningContext struct {
	PaymentKeyFile string
	StakeKeyFile   string
	ColdKeyFile    string
}

// Files returns the populated key file paths, payment key first.
func (s SigningContext) Files() (files []string) {
	for _, f := range []string{s.PaymentKeyFile, s.StakeKeyFile, s.ColdKeyFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	return
}

func (s SigningContext) Validate() (err error) {
	if s.PaymentKeyFile == "" {
		return fmt.Errorf("signing context requires a payment key file")
	}
	return
}
