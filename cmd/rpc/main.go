package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	cntool "github.com/cardano-community/cntool-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type _config struct {
	RpcHostPort string `json:"rpchostport"`
	Network     string `json:"network"`
	BinaryPath  string `json:"binarypath"`
	Era         string `json:"era"`
	JournalPath string `json:"journalpath"`
	LogLevel    string `json:"loglevel"`
}

func (c *_config) Load() (err error) {
	flag.StringVar(&c.RpcHostPort, "rpchostport", "localhost:3002", "Set host:port for the http/rpc listener")
	flag.StringVar(&c.Network, "network", "mainnet", "Set network (mainnet|preprod|privnet)")
	flag.StringVar(&c.BinaryPath, "binarypath", cntool.DefaultCardanoBinaryPath, "Path to the cardano-cli binary")
	flag.StringVar(&c.Era, "era", "shelley", "cardano-cli era command group")
	flag.StringVar(&c.JournalPath, "journalpath", "cntool.db", "Path to the sqlite activity journal")
	flag.StringVar(&c.LogLevel, "loglevel", "", "Set the log level (trace|debug|info|warn|error|fatal) Can also be set via the CNTOOL_LOG_LEVEL environment variable")
	flag.Parse()

	return
}

var log = cntool.Log()

var config *_config

func main() {
	config = &_config{}

	if err := config.Load(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	if config.LogLevel == "" {
		envLogLevel := os.Getenv("CNTOOL_LOG_LEVEL")
		if envLogLevel != "" {
			config.LogLevel = envLogLevel
		} else {
			config.LogLevel = "info"
		}
	}
	logLevel, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Msgf("%+v", errors.WithStack(err))
	}

	log.Info().Msgf("setting log level to: '%s'", logLevel)
	zerolog.SetGlobalLevel(logLevel)

	journal, err := cntool.NewSqliteJournal(config.JournalPath)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	client, err := cntool.NewCliClient(&cntool.CliClientOptions{
		Runner:  cntool.NewExecRunner(config.BinaryPath),
		Network: cntool.Network(config.Network),
		Era:     config.Era,
	})
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	toolkit, err := cntool.NewToolkit(&cntool.ToolkitOptions{
		Client:  client,
		Network: cntool.Network(config.Network),
		Journal: journal,
	})
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	server, err := NewHttpRpcServer(config, toolkit, client)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	go func() {
		if err2 := server.Start(); err2 != nil {
			log.Fatal().Msgf("%+v", err2)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	if err = server.Stop(); err != nil {
		log.Error().Msgf("failed to stop server gracefully: %+v", err)
	} else {
		log.Info().Msg("server stopped gracefully")
	}
}
