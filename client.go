package cntool

import (
	"context"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/blake2b"
)

// LedgerClient is the single boundary to the node. Production code talks to
// cardano-cli through CliClient; tests use a scripted fake.
type LedgerClient interface {
	Tip(ctx context.Context) (tip Tip, err error)
	Utxos(ctx context.Context, address string) (balance *AddressBalance, err error)
	ProtocolParams(ctx context.Context) (params *ProtocolParams, err error)
	EstimateFee(ctx context.Context, req FeeRequest) (fee uint64, err error)
	BuildRaw(ctx context.Context, req BuildRequest) (body []byte, err error)
	Sign(ctx context.Context, req SignRequest) (signed []byte, err error)
	Submit(ctx context.Context, req SubmitRequest) (err error)
}

// FeeRequest describes the transaction whose minimum fee is wanted. The fee
// depends on serialized size and witness count, so the counts must be the
// ones actually used, never an estimate.
type FeeRequest struct {
	InputCount       int
	OutputCount      int
	TTL              uint64
	SigningKeyFiles  []string
	CertificateFiles []string
	Params           *ProtocolParams
}

func (r FeeRequest) Validate() (err error) {
	if r.InputCount < 1 {
		return errors.Wrap(ErrFeeEstimationFailed, "input count must be at least 1")
	}
	if r.OutputCount < 1 {
		return errors.Wrap(ErrFeeEstimationFailed, "output count must be at least 1")
	}
	if len(r.SigningKeyFiles) == 0 {
		return errors.Wrap(ErrFeeEstimationFailed, "at least one signing key required")
	}
	if r.Params == nil || len(r.Params.Raw) == 0 {
		return errors.Wrap(ErrFeeEstimationFailed, "protocol parameters missing")
	}
	return
}

type BuildRequest struct {
	Draft TxDraft
}

func (r BuildRequest) Validate() (err error) {
	if len(r.Draft.Inputs) == 0 {
		return errors.Wrap(ErrBuildFailed, "no inputs selected")
	}
	if len(r.Draft.Outputs) == 0 {
		return errors.Wrap(ErrBuildFailed, "no outputs")
	}
	return
}

type SignRequest struct {
	Body            []byte
	SigningKeyFiles []string
}

func (r SignRequest) Validate() (err error) {
	if len(r.Body) == 0 {
		return errors.Wrap(ErrSignFailed, "empty transaction body")
	}
	if len(r.SigningKeyFiles) == 0 {
		return errors.Wrap(ErrSignFailed, "no signing keys")
	}
	return
}

type SubmitRequest struct {
	Signed []byte
}

func (r SubmitRequest) Validate() (err error) {
	if len(r.Signed) == 0 {
		return errors.Wrap(ErrSubmitFailed, "empty signed transaction")
	}
	return
}

type CliClientOptions struct {
	Runner  Runner
	Network Network
	// Era selects the cardano-cli command group, eg "shelley" or "conway".
	Era string
}

func (o *CliClientOptions) setDefaults() {
	if o.Runner == nil {
		o.Runner = NewExecRunner("")
	}
	if o.Network == "" {
		o.Network = NetworkMainNet
	}
	if o.Era == "" {
		o.Era = "shelley"
	}
}

func NewCliClient(options *CliClientOptions) (client *CliClient, err error) {
	if options == nil {
		options = &CliClientOptions{}
	}
	options.setDefaults()

	params, err := options.Network.Params()
	if err != nil {
		return
	}

	client = &CliClient{
		runner:  options.Runner,
		era:     options.Era,
		network: params,
	}

	return
}

// CliClient implements LedgerClient by driving cardano-cli. All file-shaped
// arguments are passed as virtual files so no scratch state is shared
// between invocations.
type CliClient struct {
	runner  Runner
	era     string
	network *NetworkParams
}

var _ LedgerClient = &CliClient{}

func (c *CliClient) Tip(ctx context.Context) (tip Tip, err error) {
	args := append([]string{c.era, "query", "tip"}, c.network.Args()...)

	out, err := c.runner.Run(ctx, args, nil)
	if err != nil {
		err = errors.Wrapf(ErrQueryFailed, "tip: %v", err)
		return
	}

	jsn := gjson.ParseBytes(out)

	block := jsn.Get("block")
	if !block.Exists() {
		block = jsn.Get("blockNo")
	}
	slot := jsn.Get("slot")
	if !slot.Exists() {
		slot = jsn.Get("slotNo")
	}
	if !block.Exists() || !slot.Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "tip: %s", string(out))
		return
	}

	tip = Tip{Block: block.Uint(), Slot: slot.Uint()}
	return
}

func (c *CliClient) Utxos(ctx context.Context, address string) (balance *AddressBalance, err error) {
	args := append([]string{
		c.era, "query", "utxo",
		"--address", address,
	}, c.network.Args()...)
	args = append(args, "--out-file", "/dev/stdout")

	out, err := c.runner.Run(ctx, args, nil)
	if err != nil {
		err = errors.Wrapf(ErrQueryFailed, "utxo query: %v", err)
		return
	}

	jsn := gjson.ParseBytes(out)
	if !jsn.IsObject() {
		err = errors.Wrapf(ErrInvalidCliResponse, "utxo query: %s", string(out))
		return
	}

	utxos := []Utxo{}
	parseErr := error(nil)

	jsn.ForEach(func(key, value gjson.Result) bool {
		utxo, err2 := parseUtxoEntry(key.String(), value)
		if err2 != nil {
			parseErr = err2
			return false
		}
		utxos = append(utxos, utxo)
		return true
	})
	if parseErr != nil {
		err = parseErr
		return
	}

	// Stable: ties keep the node's reporting order.
	sort.SliceStable(utxos, func(i, j int) bool {
		return utxos[i].Lovelace > utxos[j].Lovelace
	})

	balance = &AddressBalance{Address: address, Utxos: utxos}
	for _, u := range utxos {
		balance.Total += u.Lovelace
	}

	return
}

// parseUtxoEntry decodes one "txhash#index" entry. The value field moved
// from a bare integer to an object across cli versions; both are accepted.
func parseUtxoEntry(key string, value gjson.Result) (utxo Utxo, err error) {
	hash, indexStr, found := cutLast(key, '#')
	if !found {
		err = errors.Wrapf(ErrInvalidCliResponse, "utxo key '%s'", key)
		return
	}

	index, err2 := strconv.ParseUint(indexStr, 10, 32)
	if err2 != nil {
		err = errors.Wrapf(ErrInvalidCliResponse, "utxo key '%s'", key)
		return
	}

	amount := value.Get("value")
	if amount.IsObject() {
		amount = amount.Get("lovelace")
	}
	if !amount.Exists() {
		amount = value.Get("value.lovelace")
	}
	if !amount.Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "utxo entry '%s' has no value", key)
		return
	}

	utxo = Utxo{
		TxHash:   hash,
		Index:    uint32(index),
		Lovelace: amount.Uint(),
	}
	return
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func (c *CliClient) ProtocolParams(ctx context.Context) (params *ProtocolParams, err error) {
	args := append([]string{c.era, "query", "protocol-parameters"}, c.network.Args()...)
	args = append(args, "--out-file", "/dev/stdout")

	out, err := c.runner.Run(ctx, args, nil)
	if err != nil {
		err = errors.Wrapf(ErrQueryFailed, "protocol parameters: %v", err)
		return
	}

	jsn := gjson.ParseBytes(out)

	keyDeposit := jsn.Get("keyDeposit")
	if !keyDeposit.Exists() {
		keyDeposit = jsn.Get("stakeAddressDeposit")
	}
	poolDeposit := jsn.Get("poolDeposit")
	if !poolDeposit.Exists() {
		poolDeposit = jsn.Get("stakePoolDeposit")
	}
	if !keyDeposit.Exists() || !poolDeposit.Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "protocol parameters: %s", string(out))
		return
	}

	params = &ProtocolParams{
		KeyDeposit:  keyDeposit.Uint(),
		PoolDeposit: poolDeposit.Uint(),
		Raw:         out,
	}
	return
}

var feeLineRe = regexp.MustCompile(`(?i)(\d+)\s*lovelace`)

func (c *CliClient) EstimateFee(ctx context.Context, req FeeRequest) (fee uint64, err error) {
	if err = req.Validate(); err != nil {
		return
	}

	args := []string{
		c.era, "transaction", "calculate-min-fee",
		"--tx-in-count", strconv.Itoa(req.InputCount),
		"--tx-out-count", strconv.Itoa(req.OutputCount),
		"--ttl", strconv.FormatUint(req.TTL, 10),
	}
	args = append(args, c.network.Args()...)
	for _, key := range req.SigningKeyFiles {
		args = append(args, "--signing-key-file", key)
	}
	for _, cert := range req.CertificateFiles {
		args = append(args, "--certificate-file", cert)
	}
	args = append(args, "--protocol-params-file", "file://params")

	out, err := c.runner.Run(ctx, args, []VirtualFile{
		{Name: "params", Content: req.Params.Raw},
	})
	if err != nil {
		err = errors.Wrapf(ErrFeeEstimationFailed, "%v", err)
		return
	}

	matches := feeLineRe.FindStringSubmatch(string(out))
	if len(matches) != 2 {
		err = errors.Wrapf(ErrInvalidCliResponse,
			"unable to find fee in cardano-cli response: %s", string(out))
		return
	}

	fee, err2 := strconv.ParseUint(matches[1], 10, 64)
	if err2 != nil {
		err = errors.Wrapf(ErrInvalidCliResponse,
			"unable to parse fee from cardano-cli response: %s", string(out))
		return
	}

	return fee, nil
}

func (c *CliClient) BuildRaw(ctx context.Context, req BuildRequest) (body []byte, err error) {
	if err = req.Validate(); err != nil {
		return
	}

	args := []string{c.era, "transaction", "build-raw"}
	for _, in := range req.Draft.Inputs {
		args = append(args, "--tx-in", in.Ref())
	}
	for _, out := range req.Draft.Outputs {
		args = append(args, "--tx-out", out.Arg())
	}
	args = append(args,
		"--ttl", strconv.FormatUint(req.Draft.TTL, 10),
		"--fee", strconv.FormatUint(req.Draft.Fee, 10),
	)
	for _, cert := range req.Draft.Certificates {
		args = append(args, "--certificate-file", cert)
	}
	args = append(args, "--out-file", "/dev/stdout")

	out, err := c.runner.Run(ctx, args, nil)
	if err != nil {
		err = errors.Wrapf(ErrBuildFailed, "%v", err)
		return
	}

	if !gjson.ParseBytes(out).Get("cborHex").Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "build: %s", string(out))
		return
	}

	body = out
	return
}

func (c *CliClient) Sign(ctx context.Context, req SignRequest) (signed []byte, err error) {
	if err = req.Validate(); err != nil {
		return
	}

	args := []string{
		c.era, "transaction", "sign",
		"--tx-body-file", "file://tx",
	}
	for _, key := range req.SigningKeyFiles {
		args = append(args, "--signing-key-file", key)
	}
	args = append(args, c.network.Args()...)
	args = append(args, "--out-file", "/dev/stdout")

	out, err := c.runner.Run(ctx, args, []VirtualFile{
		{Name: "tx", Content: req.Body},
	})
	if err != nil {
		err = errors.Wrapf(ErrSignFailed, "%v", err)
		return
	}

	if !gjson.ParseBytes(out).Get("cborHex").Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "sign: %s", string(out))
		return
	}

	signed = out
	return
}

func (c *CliClient) Submit(ctx context.Context, req SubmitRequest) (err error) {
	if err = req.Validate(); err != nil {
		return
	}

	args := []string{
		c.era, "transaction", "submit",
		"--tx-file", "file://tx",
	}
	args = append(args, c.network.Args()...)

	out, err := c.runner.Run(ctx, args, []VirtualFile{
		{Name: "tx", Content: req.Signed},
	})
	if err != nil {
		err = errors.Wrapf(ErrSubmitFailed, "%v", err)
		return
	}

	// The cli is silent on success; anything else is a diagnostic.
	if len(out) > 0 {
		err = errors.Wrapf(ErrSubmitFailed, "%s", string(out))
	}

	return
}

// TxID computes the transaction id of a cli envelope locally: blake2b-256
// over the body element of the decoded cbor. Saves a round trip through the
// cli's txid subcommand.
func TxID(envelope []byte) (id string, err error) {
	cborHex := gjson.ParseBytes(envelope).Get("cborHex")
	if !cborHex.Exists() {
		err = errors.Wrapf(ErrInvalidCliResponse, "envelope: %s", string(envelope))
		return
	}

	raw, err2 := hex.DecodeString(cborHex.String())
	if err2 != nil {
		err = errors.Wrapf(ErrInvalidCliResponse, "envelope cborHex: %v", err2)
		return
	}

	var elements []cbor.RawMessage
	if err2 = cbor.Unmarshal(raw, &elements); err2 != nil || len(elements) == 0 {
		err = errors.Wrapf(ErrInvalidCliResponse, "envelope cbor: %v", err2)
		return
	}

	sum := blake2b.Sum256(elements[0])
	id = hex.EncodeToString(sum[:])
	return
}
