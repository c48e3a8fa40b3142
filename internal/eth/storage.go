package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// contract UniswapV2Pair is IUniswapV2Pair, UniswapV2ERC20 {
//     address public factory;
//     address public token0;
//     address public token1;
//
//     uint112 private reserve0;           // uses single storage slot, accessible via getReserves
//     uint112 private reserve1;           // uses single storage slot, accessible via getReserves
//     uint32  private blockTimestampLast; // uses single storage slot, accessible via getReserves
const (
	slotToken0   = 6
	slotToken1   = 7
	slotReserves = 8
)

// PairState is a Uniswap V2 pair read straight from storage at one block.
type PairState struct {
	Block    uint64
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// Oriented returns (reserveIn, reserveOut) for swapping src into dst.
func (p PairState) Oriented(src, dst common.Address) (*big.Int, *big.Int, error) {
	switch {
	case src == p.Token0 && dst == p.Token1:
		return p.Reserve0, p.Reserve1, nil
	case src == p.Token1 && dst == p.Token0:
		return p.Reserve1, p.Reserve0, nil
	default:
		return nil, nil, ErrPairMismatch
	}
}

// PairState reads token0, token1 and the packed reserves of pool at the
// latest block, all pinned to the same block number.
func (r *Reader) PairState(ctx context.Context, pool common.Address) (PairState, error) {
	bn, err := r.client.BlockNumber(ctx)
	if err != nil {
		return PairState{}, fmt.Errorf("block number: %w", err)
	}
	blockNum := new(big.Int).SetUint64(bn)

	b0, err := r.readSlot(ctx, pool, blockNum, slotToken0)
	if err != nil {
		return PairState{}, err
	}
	b1, err := r.readSlot(ctx, pool, blockNum, slotToken1)
	if err != nil {
		return PairState{}, err
	}
	// reserves (uint112 | uint112 | uint32) are packed into a single 32‑byte slot
	br, err := r.readSlot(ctx, pool, blockNum, slotReserves)
	if err != nil {
		return PairState{}, err
	}
	reserve0, reserve1 := parseReserves(br)

	return PairState{
		Block:    bn,
		Token0:   common.BytesToAddress(b0),
		Token1:   common.BytesToAddress(b1),
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, nil
}

func (r *Reader) readSlot(ctx context.Context, pool common.Address, blockNum *big.Int, slot uint64) ([]byte, error) {
	key := common.BigToHash(new(big.Int).SetUint64(slot))
	b, err := r.client.StorageAt(ctx, pool, key, blockNum)
	if err != nil {
		return nil, fmt.Errorf("storageAt slot %d (pool %s, block %s): %w",
			slot, pool.Hex(), blockNum.String(), err)
	}
	return b, nil
}

// parseReserves unpacks two uint112 reserves from the 32‑byte storage word
// used by Uniswap V2 pairs. The layout is:
//
//	[ 32 bits timestamp | 112 bits reserve1 | 112 bits reserve0 ]
//
// Values are treated as big‑endian within the 256‑bit word.
func parseReserves(b []byte) (reserve0, reserve1 *big.Int) {
	v := new(big.Int).SetBytes(b)
	mask112 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

	reserve0 = new(big.Int).And(v, mask112)
	reserve1 = new(big.Int).And(new(big.Int).Rsh(v, 112), mask112)
	return
}
