// Package eth reads storefront state (balances, allowances, pair reserves,
// crowdsale state) from an Ethereum JSON-RPC node.
package eth

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const defaultDialTimeout = 15 * time.Second

// Dial connects to url and wraps the client in a Reader. A zero timeout
// means the default of 15s.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Reader, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewReader(client), nil
}

// Close releases the underlying RPC connection.
func (r *Reader) Close() {
	r.client.Close()
}
