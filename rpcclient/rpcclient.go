package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cntool "github.com/cardano-community/cntool-go"
	"github.com/pkg/errors"
)

func NewRpcClient(hostPort string) (client *RpcClient, err error) {
	client = &RpcClient{
		HostPort: hostPort,
	}
	return
}

// RpcClient talks to the cntool rpc facade.
type RpcClient struct {
	HostPort string
}

type RpcError struct {
	ErrorMessage string `json:"error"`
	Details      string `json:"details"`
}

func (e *RpcError) Error() string {
	return e.ErrorMessage
}

func (c *RpcClient) req(method string, path string, body io.Reader) (rsp *http.Response, out []byte, err error) {
	req, err2 := http.NewRequest(method, c.HostPort+path, body)
	if err2 != nil {
		err = err2
		return
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err = http.DefaultClient.Do(req)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if rsp.Status[0] != '2' {
		errRsp := &RpcError{}
		if decodeErr := json.Unmarshal(out, errRsp); decodeErr == nil {
			err = errRsp
			return
		}

		err = errors.Errorf("rpc response code %d with body %s", rsp.StatusCode, string(out))
		return
	}

	return
}

func (c *RpcClient) reqUnmarshal(method string, path string, body io.Reader, target any) (err error) {
	_, rspBody, err := c.req(method, path, body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	err = json.Unmarshal(rspBody, target)
	if err != nil {
		err = errors.Wrapf(err, "unable to unmarshal body: %s", string(rspBody))
		return
	}

	return
}

func (c *RpcClient) get(path string, target any) (err error) {
	return c.reqUnmarshal(http.MethodGet, path, nil, target)
}

func (c *RpcClient) post(path string, in any, target any) (err error) {
	jsn, err := json.Marshal(in)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	return c.reqUnmarshal(http.MethodPost, path, bytes.NewReader(jsn), target)
}

type GetTipOut cntool.Tip

func (c *RpcClient) GetTip() (out *GetTipOut, err error) {
	out = &GetTipOut{}
	err = c.get("/tip", out)
	return
}

type GetBalanceOut cntool.AddressBalance

func (c *RpcClient) GetBalance(address string) (out *GetBalanceOut, err error) {
	out = &GetBalanceOut{}
	err = c.get(fmt.Sprintf("/balance/%s", address), out)
	return
}

type GetStatusOut struct {
	Tip         cntool.Tip `json:"tip"`
	KeyDeposit  uint64     `json:"keyDeposit"`
	PoolDeposit uint64     `json:"poolDeposit"`
	Network     string     `json:"network"`
}

func (c *RpcClient) GetStatus() (out *GetStatusOut, err error) {
	out = &GetStatusOut{}
	err = c.get("/status", out)
	return
}

type WorkflowOut struct {
	TxID string `json:"txid"`
	Fee  uint64 `json:"fee"`
}

type SendIn struct {
	From           string `json:"from"`
	To             string `json:"to"`
	Amount         string `json:"amount"`
	DeductFee      bool   `json:"deductFee"`
	PaymentKeyFile string `json:"paymentKeyFile"`
}

func (c *RpcClient) Send(in SendIn) (out *WorkflowOut, err error) {
	out = &WorkflowOut{}
	err = c.post("/send", in, out)
	return
}

type RegisterStakeIn struct {
	PaymentAddress       string `json:"paymentAddress"`
	BaseAddress          string `json:"baseAddress"`
	PaymentKeyFile       string `json:"paymentKeyFile"`
	StakeKeyFile         string `json:"stakeKeyFile"`
	RegistrationCertFile string `json:"registrationCertFile"`
}

func (c *RpcClient) RegisterStake(in RegisterStakeIn) (out *WorkflowOut, err error) {
	out = &WorkflowOut{}
	err = c.post("/register-stake", in, out)
	return
}

type RegisterPoolIn struct {
	PaymentAddress       string `json:"paymentAddress"`
	PaymentKeyFile       string `json:"paymentKeyFile"`
	ColdKeyFile          string `json:"coldKeyFile"`
	StakeKeyFile         string `json:"stakeKeyFile"`
	RegistrationCertFile string `json:"registrationCertFile"`
	PledgeCertFile       string `json:"pledgeCertFile"`
}

func (c *RpcClient) RegisterPool(in RegisterPoolIn) (out *WorkflowOut, err error) {
	out = &WorkflowOut{}
	err = c.post("/register-pool", in, out)
	return
}

type DelegateIn struct {
	PaymentAddress     string `json:"paymentAddress"`
	PaymentKeyFile     string `json:"paymentKeyFile"`
	StakeKeyFile       string `json:"stakeKeyFile"`
	DelegationCertFile string `json:"delegationCertFile"`
}

func (c *RpcClient) Delegate(in DelegateIn) (out *WorkflowOut, err error) {
	out = &WorkflowOut{}
	err = c.post("/delegate", in, out)
	return
}
