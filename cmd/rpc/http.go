package main

import (
	"net/http"
	"time"

	cntool "github.com/cardano-community/cntool-go"
	"github.com/cardano-community/cntool-go/rpcclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
)

func NewHttpRpcServer(config *_config, toolkit *cntool.Toolkit, client cntool.LedgerClient) (server *HttpRpcServer, err error) {
	server = &HttpRpcServer{
		config:  config,
		toolkit: toolkit,
		client:  client,
	}

	return
}

type HttpRpcServer struct {
	app     *fiber.App
	config  *_config
	toolkit *cntool.Toolkit
	client  cntool.LedgerClient
}

func (s *HttpRpcServer) Start() (err error) {
	s.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          5 * time.Minute,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(func(c *fiber.Ctx) error {
		rsp := c.Next()
		log.Info().Msgf("http response: [%d] %s - %s %s", c.Response().StatusCode(), c.IP(), c.Method(), c.Path())
		return rsp
	})

	s.app.Get("/tip", s.getTip)
	s.app.Get("/status", s.getStatus)
	s.app.Get("/balance/:address", s.getBalance)
	s.app.Post("/send", s.postSend)
	s.app.Post("/register-stake", s.postRegisterStake)
	s.app.Post("/register-pool", s.postRegisterPool)
	s.app.Post("/delegate", s.postDelegate)

	log.Info().Msgf("http/rpc server listening on %s", s.config.RpcHostPort)

	err = errors.WithStack(s.app.Listen(s.config.RpcHostPort))

	return
}

func (s *HttpRpcServer) Stop() (err error) {
	return errors.WithStack(s.app.Shutdown())
}

func (s *HttpRpcServer) errorResponse(c *fiber.Ctx, err error) error {
	statusCode := http.StatusInternalServerError

	reportedErr := err

	for match, code := range map[error]int{
		cntool.ErrEmptySource:    http.StatusUnprocessableEntity,
		cntool.ErrNotEnoughFunds: http.StatusUnprocessableEntity,
		cntool.ErrInvalidAmount:  http.StatusBadRequest,
		cntool.ErrAddressInvalid: http.StatusBadRequest,
	} {
		if errors.Is(err, match) {
			reportedErr = match
			statusCode = code
			break
		}
	}

	// Keep the full comparison (shortfall etc) in details for the operator.
	return c.Status(statusCode).JSON(map[string]any{
		"error":   reportedErr.Error(),
		"details": err.Error(),
	})
}

func (s *HttpRpcServer) unmarshalJson(c *fiber.Ctx, target any) (ok bool) {
	if err := c.BodyParser(target); err != nil {
		_ = c.Status(http.StatusBadRequest).JSON(map[string]any{
			"error": "invalid request body",
		})
		return false
	}
	return true
}

func (s *HttpRpcServer) getTip(c *fiber.Ctx) error {
	tip, err := s.client.Tip(c.Context())
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(tip)
}

func (s *HttpRpcServer) getStatus(c *fiber.Ctx) error {
	tip, err := s.client.Tip(c.Context())
	if err != nil {
		return s.errorResponse(c, err)
	}

	params, err := s.client.ProtocolParams(c.Context())
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(rpcclient.GetStatusOut{
		Tip:         tip,
		KeyDeposit:  params.KeyDeposit,
		PoolDeposit: params.PoolDeposit,
		Network:     s.config.Network,
	})
}

func (s *HttpRpcServer) getBalance(c *fiber.Ctx) error {
	balance, err := s.toolkit.Balance(c.Context(), c.Params("address"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(balance)
}

func (s *HttpRpcServer) workflowResponse(c *fiber.Ctx, result *cntool.WorkflowResult) error {
	return c.JSON(rpcclient.WorkflowOut{
		TxID: result.TxID,
		Fee:  result.Draft.Fee,
	})
}

func (s *HttpRpcServer) postSend(c *fiber.Ctx) error {
	in := &rpcclient.SendIn{}
	if !s.unmarshalJson(c, in) {
		return nil
	}

	payer := cntool.FeePayerSender
	if in.DeductFee {
		payer = cntool.FeePayerRecipient
	}

	result, err := s.toolkit.Transfer(c.Context(), cntool.TransferRequest{
		SourceAddress:      in.From,
		DestinationAddress: in.To,
		Amount:             in.Amount,
		FeePayer:           payer,
		PaymentKeyFile:     in.PaymentKeyFile,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return s.workflowResponse(c, result)
}

func (s *HttpRpcServer) postRegisterStake(c *fiber.Ctx) error {
	in := &rpcclient.RegisterStakeIn{}
	if !s.unmarshalJson(c, in) {
		return nil
	}

	result, err := s.toolkit.RegisterStakeKey(c.Context(), cntool.StakeRegistrationRequest{
		PaymentAddress:       in.PaymentAddress,
		BaseAddress:          in.BaseAddress,
		PaymentKeyFile:       in.PaymentKeyFile,
		StakeKeyFile:         in.StakeKeyFile,
		RegistrationCertFile: in.RegistrationCertFile,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return s.workflowResponse(c, result)
}

func (s *HttpRpcServer) postRegisterPool(c *fiber.Ctx) error {
	in := &rpcclient.RegisterPoolIn{}
	if !s.unmarshalJson(c, in) {
		return nil
	}

	result, err := s.toolkit.RegisterPool(c.Context(), cntool.PoolRegistrationRequest{
		PaymentAddress:       in.PaymentAddress,
		PaymentKeyFile:       in.PaymentKeyFile,
		ColdKeyFile:          in.ColdKeyFile,
		StakeKeyFile:         in.StakeKeyFile,
		RegistrationCertFile: in.RegistrationCertFile,
		PledgeCertFile:       in.PledgeCertFile,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return s.workflowResponse(c, result)
}

func (s *HttpRpcServer) postDelegate(c *fiber.Ctx) error {
	in := &rpcclient.DelegateIn{}
	if !s.unmarshalJson(c, in) {
		return nil
	}

	result, err := s.toolkit.Delegate(c.Context(), cntool.DelegationRequest{
		PaymentAddress:     in.PaymentAddress,
		PaymentKeyFile:     in.PaymentKeyFile,
		StakeKeyFile:       in.StakeKeyFile,
		DelegationCertFile: in.DelegationCertFile,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return s.workflowResponse(c, result)
}
