package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs for the calls the storefront makes. The token ABI includes
// cap() from the capped ERC-20 the crowdsale mints into.
const (
	tokenABIJSON = `[
 {"name":"balanceOf","type":"function","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"name":"allowance","type":"function","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"name":"totalSupply","type":"function","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"name":"cap","type":"function","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

	pairABIJSON = `[
 {"name":"getReserves","type":"function","stateMutability":"view","inputs":[],
  "outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]},
 {"name":"token0","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"name":"token1","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

	crowdsaleABIJSON = `[
 {"name":"isOpen","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
 {"name":"rate","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`
)

var (
	TokenABI     = mustParseABI("token", tokenABIJSON)
	PairABI      = mustParseABI("pair", pairABIJSON)
	CrowdsaleABI = mustParseABI("crowdsale", crowdsaleABIJSON)
)

func mustParseABI(name, js string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		panic("failed to parse " + name + " ABI: " + err.Error())
	}
	return parsed
}
