package chainrpc

import (
	"bytes"
	"io"
	"math/big"
	"strings"

	"tychoorderbook/internal/domain"
)

func jsonReader(body []byte) io.Reader {
	return bytes.NewReader(body)
}

// balanceOfCalldata builds the ERC-20 balanceOf(address) calldata for the
// given 20-byte hex address, using the standard 4-byte selector
// 0x70a08231.
func balanceOfCalldata(address string) string {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(addr) < 64 {
		addr = strings.Repeat("0", 64-len(addr)) + addr
	}
	return "0x70a08231" + addr
}

// parseHexRawAmount parses a 0x-prefixed hex integer into a RawAmount.
func parseHexRawAmount(hex string) domain.RawAmount {
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" {
		return domain.RawAmount{}
	}
	b, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return domain.RawAmount{}
	}
	return domain.RawAmountFromBigInt(b)
}
