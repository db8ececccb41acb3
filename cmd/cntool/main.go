package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	cntool "github.com/cardano-community/cntool-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log = cntool.Log()

type _config struct {
	Network     string
	BinaryPath  string
	Era         string
	JournalPath string
	LogLevel    string
}

func (c *_config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Network, "network", "mainnet", "Network (mainnet|preprod|privnet)")
	fs.StringVar(&c.BinaryPath, "binary", cntool.DefaultCardanoBinaryPath, "Path to the cardano-cli binary")
	fs.StringVar(&c.Era, "era", "shelley", "cardano-cli era command group")
	fs.StringVar(&c.JournalPath, "journal", "", "Path to the sqlite activity journal (empty: in-memory)")
	fs.StringVar(&c.LogLevel, "loglevel", "", "Log level (trace|debug|info|warn|error) Can also be set via CNTOOL_LOG_LEVEL")
}

var config = &_config{}

func (c *_config) toolkit() (tk *cntool.Toolkit, err error) {
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("CNTOOL_LOG_LEVEL")
	}
	if c.LogLevel != "" {
		level, err2 := zerolog.ParseLevel(c.LogLevel)
		if err2 != nil {
			err = errors.WithStack(err2)
			return
		}
		zerolog.SetGlobalLevel(level)
	}

	client, err := cntool.NewCliClient(&cntool.CliClientOptions{
		Runner:  cntool.NewExecRunner(c.BinaryPath),
		Network: cntool.Network(c.Network),
		Era:     c.Era,
	})
	if err != nil {
		return
	}

	var journal cntool.Journal
	if c.JournalPath != "" {
		journal, err = cntool.NewSqliteJournal(c.JournalPath)
		if err != nil {
			return
		}
	}

	return cntool.NewToolkit(&cntool.ToolkitOptions{
		Client:  client,
		Network: cntool.Network(c.Network),
		Journal: journal,
	})
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cntool (balance | send | register-stake | register-pool | delegate | wait-block | encrypt | decrypt) [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "balance":
		err = cmdBalance(ctx, os.Args[2:])
	case "send":
		err = cmdSend(ctx, os.Args[2:])
	case "register-stake":
		err = cmdRegisterStake(ctx, os.Args[2:])
	case "register-pool":
		err = cmdRegisterPool(ctx, os.Args[2:])
	case "delegate":
		err = cmdDelegate(ctx, os.Args[2:])
	case "wait-block":
		err = cmdWaitBlock(ctx, os.Args[2:])
	case "encrypt":
		err = cmdEncrypt(os.Args[2:], true)
	case "decrypt":
		err = cmdEncrypt(os.Args[2:], false)
	default:
		log.Error().Msgf("invalid subcommand '%s'", os.Args[1])
		usage()
	}

	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
}

func cmdBalance(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	config.register(fs)
	address := fs.String("address", "", "Address to query")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	_, err = tk.Balance(ctx, *address)
	return
}

func cmdSend(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	config.register(fs)
	source := fs.String("from", "", "Source address")
	destination := fs.String("to", "", "Destination address")
	amount := fs.String("amount", "", "Amount in ada, or 'all'")
	deduct := fs.Bool("deduct-fee", false, "Deduct the fee from the amount instead of paying it on top")
	paymentKey := fs.String("payment-key", "", "Payment signing key file")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	payer := cntool.FeePayerSender
	if *deduct {
		payer = cntool.FeePayerRecipient
	}

	result, err := tk.Transfer(ctx, cntool.TransferRequest{
		SourceAddress:      *source,
		DestinationAddress: *destination,
		Amount:             *amount,
		FeePayer:           payer,
		PaymentKeyFile:     *paymentKey,
	})
	if err != nil {
		return
	}

	log.Info().Msgf("transfer complete, txid %s", result.TxID)
	return
}

func cmdRegisterStake(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("register-stake", flag.ExitOnError)
	config.register(fs)
	payment := fs.String("payment-address", "", "Payment address funding the registration")
	base := fs.String("base-address", "", "New base address receiving the consolidated funds")
	paymentKey := fs.String("payment-key", "", "Payment signing key file")
	stakeKey := fs.String("stake-key", "", "Stake signing key file")
	cert := fs.String("cert", "", "Stake key registration certificate file")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	result, err := tk.RegisterStakeKey(ctx, cntool.StakeRegistrationRequest{
		PaymentAddress:       *payment,
		BaseAddress:          *base,
		PaymentKeyFile:       *paymentKey,
		StakeKeyFile:         *stakeKey,
		RegistrationCertFile: *cert,
	})
	if err != nil {
		return
	}

	log.Info().Msgf("stake key registered, txid %s", result.TxID)
	return
}

func cmdRegisterPool(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("register-pool", flag.ExitOnError)
	config.register(fs)
	payment := fs.String("payment-address", "", "Payment address funding the registration")
	paymentKey := fs.String("payment-key", "", "Payment signing key file")
	coldKey := fs.String("cold-key", "", "Pool cold signing key file")
	stakeKey := fs.String("stake-key", "", "Stake signing key file")
	regCert := fs.String("pool-cert", "", "Pool registration certificate file")
	pledgeCert := fs.String("pledge-cert", "", "Owner pledge delegation certificate file")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	result, err := tk.RegisterPool(ctx, cntool.PoolRegistrationRequest{
		PaymentAddress:       *payment,
		PaymentKeyFile:       *paymentKey,
		ColdKeyFile:          *coldKey,
		StakeKeyFile:         *stakeKey,
		RegistrationCertFile: *regCert,
		PledgeCertFile:       *pledgeCert,
	})
	if err != nil {
		return
	}

	log.Info().Msgf("pool registered, txid %s", result.TxID)
	return
}

func cmdDelegate(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("delegate", flag.ExitOnError)
	config.register(fs)
	payment := fs.String("payment-address", "", "Payment address paying the fee")
	paymentKey := fs.String("payment-key", "", "Payment signing key file")
	stakeKey := fs.String("stake-key", "", "Stake signing key file")
	cert := fs.String("cert", "", "Delegation certificate file")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	result, err := tk.Delegate(ctx, cntool.DelegationRequest{
		PaymentAddress:     *payment,
		PaymentKeyFile:     *paymentKey,
		StakeKeyFile:       *stakeKey,
		DelegationCertFile: *cert,
	})
	if err != nil {
		return
	}

	log.Info().Msgf("delegation complete, txid %s", result.TxID)
	return
}

func cmdWaitBlock(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("wait-block", flag.ExitOnError)
	config.register(fs)
	from := fs.Uint64("from", 0, "Block height to wait past")
	slotDuration := fs.Duration("slot-duration", time.Second*20, "Poll interval")
	timeoutSlots := fs.Int("timeout-slots", 30, "Give up after this many polls")
	if err = fs.Parse(args); err != nil {
		return
	}

	tk, err := config.toolkit()
	if err != nil {
		return
	}

	result, err := tk.WaitForBlock(ctx, *from, *slotDuration, *timeoutSlots)
	if err != nil {
		return
	}

	if result.TimedOut {
		log.Warn().Msgf("no new block after %d polls", *timeoutSlots)
		return
	}

	log.Info().Msgf("new block %d at slot %d", result.Tip.Block, result.Tip.Slot)
	return
}

func cmdEncrypt(args []string, encrypt bool) (err error) {
	name := "decrypt"
	if encrypt {
		name = "encrypt"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	file := fs.String("file", "", "Key file to process in place")
	passphrase := fs.String("passphrase", "", "Passphrase (min 8 characters)")
	confirm := fs.String("confirm", "", "Passphrase confirmation (encrypt only)")
	if err = fs.Parse(args); err != nil {
		return
	}

	if encrypt {
		if *passphrase != *confirm {
			err = errors.New("passphrases do not match")
			return
		}
		if err = cntool.EncryptKeyFile(*file, *passphrase); err != nil {
			return
		}
		log.Info().Msgf("encrypted '%s'", *file)
		return
	}

	if err = cntool.DecryptKeyFile(*file, *passphrase); err != nil {
		return
	}
	log.Info().Msgf("decrypted '%s'", *file)
	return
}
