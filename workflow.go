package cntool

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Stage names the step of the build/sign/submit pipeline at which a
// workflow failed. Nothing is retried; the operator corrects and re-runs,
// which is safe because source utxos are untouched until submission.
type Stage string

const (
	StageBuild  Stage = "build"
	StageSign   Stage = "sign"
	StageSubmit Stage = "submit"
)

type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type ToolkitOptions struct {
	Client  LedgerClient
	Network Network
	Journal Journal
}

func (o *ToolkitOptions) setDefaults() {
	if o.Network == "" {
		o.Network = NetworkMainNet
	}
	if o.Journal == nil {
		o.Journal = NewInMemoryJournal()
	}
}

func NewToolkit(options *ToolkitOptions) (tk *Toolkit, err error) {
	if options == nil || options.Client == nil {
		err = errors.New("toolkit requires a ledger client")
		return
	}
	options.setDefaults()

	if err = options.Network.Validate(); err != nil {
		return
	}

	tk = &Toolkit{
		client:  options.Client,
		network: options.Network,
		journal: options.Journal,
	}

	return
}

// Toolkit composes the ledger client into the four operator workflows:
// transfer, stake key registration, pool registration and delegation.
// Single operator, single invocation; not safe for concurrent use.
type Toolkit struct {
	client  LedgerClient
	network Network
	journal Journal
}

func (tk *Toolkit) Balance(ctx context.Context, address string) (balance *AddressBalance, err error) {
	return GetBalance(ctx, tk.client, address)
}

// WorkflowResult is returned by every successful workflow run.
type WorkflowResult struct {
	TxID  string
	Draft TxDraft
}

// runPipeline drives a finished draft through build, sign and submit.
// Drafts reaching this point have already passed their sufficiency and
// conservation checks; a failure here is tagged with the stage it died at.
func (tk *Toolkit) runPipeline(ctx context.Context, op string, draft TxDraft, signing SigningContext) (result *WorkflowResult, err error) {
	if err = signing.Validate(); err != nil {
		return
	}

	body, err := tk.client.BuildRaw(ctx, BuildRequest{Draft: draft})
	if err != nil {
		tk.record(op, StageBuild, err)
		err = &StageError{Stage: StageBuild, Err: err}
		return
	}

	signed, err := tk.client.Sign(ctx, SignRequest{
		Body:            body,
		SigningKeyFiles: signing.Files(),
	})
	if err != nil {
		tk.record(op, StageSign, err)
		err = &StageError{Stage: StageSign, Err: err}
		return
	}

	if err = tk.client.Submit(ctx, SubmitRequest{Signed: signed}); err != nil {
		tk.record(op, StageSubmit, err)
		err = &StageError{Stage: StageSubmit, Err: err}
		return
	}

	txid, err2 := TxID(signed)
	if err2 != nil {
		log.Warn().Msgf("unable to compute txid locally: %v", err2)
	}

	tk.record(op, StageSubmit, nil)
	log.Info().Msgf("%s submitted, txid %s", op, txid)

	result = &WorkflowResult{TxID: txid, Draft: draft}
	return
}

func (tk *Toolkit) record(op string, stage Stage, stageErr error) {
	if tk.journal == nil {
		return
	}

	entry := JournalEntry{
		Time:      time.Now(),
		Operation: op,
		Stage:     string(stage),
	}
	if stageErr != nil {
		entry.Outcome = stageErr.Error()
	} else {
		entry.Outcome = "ok"
	}

	if err := tk.journal.Append(entry); err != nil {
		log.Warn().Msgf("journal append failed: %v", err)
	}
}

// ttlFor derives a transaction time to live from the current slot.
func (tk *Toolkit) ttlFor(ctx context.Context, slotBuffer uint64) (ttl uint64, err error) {
	tip, err := tk.client.Tip(ctx)
	if err != nil {
		return
	}
	ttl = tip.Slot + slotBuffer
	return
}

// DefaultTTLBuffer is how many slots past the current tip a transaction
// stays valid.
const DefaultTTLBuffer = 3600

// WaitResult is the outcome of a block wait. A timeout is an expected
// result, not an error; callers decide whether to continue or abort.
type WaitResult struct {
	TimedOut bool
	Tip      Tip
}

// WaitForBlock polls the tip once per slotDuration until the block height
// rises above from, for at most timeoutSlots polls. Cancelling the context
// aborts cleanly; no chain state has been touched.
func (tk *Toolkit) WaitForBlock(ctx context.Context, from uint64, slotDuration time.Duration, timeoutSlots int) (result WaitResult, err error) {
	ticker := time.NewTicker(slotDuration)
	defer ticker.Stop()

	for i := 0; i < timeoutSlots; i++ {
		select {
		case <-ctx.Done():
			err = errors.WithStack(ctx.Err())
			return
		case <-ticker.C:
		}

		tip, err2 := tk.client.Tip(ctx)
		if err2 != nil {
			err = err2
			return
		}

		if tip.Block > from {
			result = WaitResult{Tip: tip}
			if tk.journal != nil {
				_ = tk.journal.SetLastTip(tip)
			}
			return
		}
	}

	result = WaitResult{TimedOut: true}
	return
}
