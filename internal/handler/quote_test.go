package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/nulln0ne/wines-storefront/internal/service"
	"github.com/nulln0ne/wines-storefront/internal/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	quote *service.Quote
	err   error
	ready bool
	price *service.Price

	got      trade.Context
	quantity string
}

func (s *stubQuoter) Quote(_ context.Context, c trade.Context, quantity string) (*service.Quote, error) {
	s.got, s.quantity = c, quantity
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	q.Context = c
	return &q, nil
}

func (s *stubQuoter) Ready(_ context.Context, c trade.Context) (bool, error) {
	s.got = c
	return s.ready, s.err
}

func (s *stubQuoter) Price(context.Context) (*service.Price, error) {
	return s.price, s.err
}

func newQuoteApp(q Quoter) *fiber.App {
	h := NewQuoteHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), q)
	app := fiber.New()
	app.Get("/v1/quote", h.HandleQuote())
	app.Get("/v1/ready", h.HandleReady())
	app.Get("/v1/price", h.HandlePrice())
	app.Get("/healthz", Health())
	return app
}

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

const alice = "0x0000000000000000000000000000000000001111"

func TestQuoteHandler_Plan(t *testing.T) {
	stub := &stubQuoter{quote: &service.Quote{
		Plan: &trade.Plan{
			Kind:              trade.KindBuy,
			InputValue:        wei("20408163265306122448"),
			OutputValue:       wei("10000000000000000000"),
			MaximumInputValue: wei("20612244897959183672"),
		},
		USDValue:    wei("40816326530612244896000"),
		BlockNumber: 9,
	}}
	app := newQuoteApp(stub)

	status, body := get(t, app, "/v1/quote?kind=buy&quantity=10&account="+alice+"&token=eth")
	require.Equal(t, http.StatusOK, status, body)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "buy", resp.Kind)
	assert.Equal(t, "ETH", resp.Token)
	assert.Equal(t, "20408163265306122448", resp.InputValue)
	assert.Equal(t, "20612244897959183672", resp.MaximumInputValue)
	assert.Empty(t, resp.MinimumOutputValue)
	assert.Equal(t, "20.4082", resp.InputDisplay)
	assert.Equal(t, "10.0000", resp.OutputDisplay)
	assert.Equal(t, "40816.33", resp.USDValue)
	assert.Equal(t, uint64(9), resp.BlockNumber)
	assert.Nil(t, resp.Error)

	assert.Equal(t, common.HexToAddress(alice), stub.got.Account)
	assert.Equal(t, trade.SymbolETH, stub.got.SelectedToken)
	assert.Equal(t, "10", stub.quantity)
}

func TestQuoteHandler_ValidationFailure(t *testing.T) {
	stub := &stubQuoter{quote: &service.Quote{
		Failure: &service.Failure{Code: trade.CodeInsufficientAllowance, Detail: "allowanceWINES 0 below required 1"},
	}}
	app := newQuoteApp(stub)

	status, body := get(t, app, "/v1/quote?kind=sell&quantity=1&account="+alice)
	require.Equal(t, http.StatusOK, status, body)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "InsufficientAllowance", resp.Error.Code)
	assert.Equal(t, "no-allowance", resp.Error.Message)
	assert.Equal(t, "unlock", resp.Error.Action)
	assert.Empty(t, resp.InputValue)
}

func TestQuoteHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrNotReady, http.StatusConflict},
		{service.ErrUnknownToken, http.StatusBadRequest},
		{service.ErrInvalidKind, http.StatusBadRequest},
		{errors.New("rpc down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newQuoteApp(&stubQuoter{err: tt.err})
			status, _ := get(t, app, "/v1/quote?kind=crowdsale&quantity=1")
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestQuoteHandler_MalformedRequest(t *testing.T) {
	app := newQuoteApp(&stubQuoter{quote: &service.Quote{}})

	for _, target := range []string{
		"/v1/quote?quantity=1",
		"/v1/quote?kind=swap&quantity=1",
		"/v1/quote?kind=buy&quantity=1&account=0x1234",
		"/v1/quote?kind=buy&quantity=1&token=DAI-X",
	} {
		status, body := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, status, "%s: %s", target, body)
	}
}

func TestQuoteHandler_Ready(t *testing.T) {
	stub := &stubQuoter{ready: true}
	app := newQuoteApp(stub)

	status, body := get(t, app, "/v1/ready?kind=crowdsale&token=DAI")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"ready":true}`, body)
	assert.Equal(t, trade.SymbolDAI, stub.got.SelectedToken)
	assert.False(t, stub.got.HasAccount())
}

func TestQuoteHandler_Price(t *testing.T) {
	app := newQuoteApp(&stubQuoter{price: &service.Price{
		PoolETH:     wei("2000000000000000000"),
		PoolUSD:     wei("4000000000000000000000"),
		ETHUSD:      wei("2000000000000000000000"),
		BlockNumber: 5,
	}})

	status, body := get(t, app, "/v1/price")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"pool_eth":"2.0000","pool_usd":"4000.00","eth_usd":"2000.00","block_number":5}`, body)
}

func TestHealth(t *testing.T) {
	status, body := get(t, newQuoteApp(&stubQuoter{}), "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}
