package eth

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Reader performs the read-only chain calls the storefront needs: balances,
// allowances, pair reserves and crowdsale state. All calls target the latest
// block.
type Reader struct {
	client *ethclient.Client
}

func NewReader(client *ethclient.Client) *Reader {
	return &Reader{client: client}
}

func (r *Reader) BlockNumber(ctx context.Context) (uint64, error) {
	return r.client.BlockNumber(ctx)
}

// EtherBalance returns the native balance of account.
func (r *Reader) EtherBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	b, err := r.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return b, nil
}

func (r *Reader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return r.callUint(ctx, TokenABI, token, "balanceOf", account)
}

func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return r.callUint(ctx, TokenABI, token, "allowance", owner, spender)
}

func (r *Reader) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	return r.callUint(ctx, TokenABI, token, "totalSupply")
}

func (r *Reader) Cap(ctx context.Context, token common.Address) (*big.Int, error) {
	return r.callUint(ctx, TokenABI, token, "cap")
}

func (r *Reader) CrowdsaleRate(ctx context.Context, sale common.Address) (*big.Int, error) {
	return r.callUint(ctx, CrowdsaleABI, sale, "rate")
}

func (r *Reader) CrowdsaleOpen(ctx context.Context, sale common.Address) (bool, error) {
	values, err := r.call(ctx, CrowdsaleABI, sale, "isOpen")
	if err != nil {
		return false, err
	}
	open, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: isOpen returned %T", ErrUnexpectedReply, values[0])
	}
	return open, nil
}

// Reserves returns the reserves of pair oriented around base: the reserve of
// base first, the reserve of the other token second. Pairs sort their tokens
// by address, so the raw order cannot be assumed.
func (r *Reader) Reserves(ctx context.Context, pair, base common.Address) (baseReserve, quoteReserve *big.Int, err error) {
	values, err := r.call(ctx, PairABI, pair, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	reserve0, ok0 := values[0].(*big.Int)
	reserve1, ok1 := values[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, fmt.Errorf("%w: getReserves returned %T, %T", ErrUnexpectedReply, values[0], values[1])
	}

	token0, err := r.pairToken(ctx, pair, "token0")
	if err != nil {
		return nil, nil, err
	}
	if token0 == base {
		return reserve0, reserve1, nil
	}
	token1, err := r.pairToken(ctx, pair, "token1")
	if err != nil {
		return nil, nil, err
	}
	if token1 == base {
		return reserve1, reserve0, nil
	}
	return nil, nil, fmt.Errorf("%w: pair %s holds %s/%s, not %s", ErrPairMismatch, pair.Hex(), token0.Hex(), token1.Hex(), base.Hex())
}

func (r *Reader) pairToken(ctx context.Context, pair common.Address, method string) (common.Address, error) {
	values, err := r.call(ctx, PairABI, pair, method)
	if err != nil {
		return common.Address{}, err
	}
	token, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s returned %T", ErrUnexpectedReply, method, values[0])
	}
	return token, nil
}

func (r *Reader) callUint(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	values, err := r.call(ctx, contract, to, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T", ErrUnexpectedReply, method, values[0])
	}
	return v, nil
}

func (r *Reader) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s from %s: %w", method, to.Hex(), err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s returned nothing", ErrUnexpectedReply, method)
	}
	return values, nil
}
