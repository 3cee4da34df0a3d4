package model

import (
	"encoding/binary"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Record keys. Every record is owned by exactly one key and every mutation
// re-derives the key from its inputs.
const (
	KeyVaultConfig = "vault/config"
	KeyTradeConfig = "trading/config"

	PrefixBalance = "vault/balance/"
	PrefixCustody = "vault/custody/"
	PrefixMarket  = "trading/market/"
	PrefixSymbol  = "trading/symbol/"
	PrefixOrder   = "trading/order/"
	PrefixTrade   = "trading/trade/"
	PrefixHolding = "bank/holding/"
)

func BalancePrefix(token common.Address) string {
	return PrefixBalance + token.Hex() + "/"
}

func BalanceKey(token, owner common.Address) string {
	return BalancePrefix(token) + owner.Hex()
}

func CustodyKey(token common.Address) string {
	return PrefixCustody + token.Hex()
}

func MarketKey(id common.Address) string {
	return PrefixMarket + id.Hex()
}

func SymbolKey(symbol string) string {
	return PrefixSymbol + strings.ToUpper(symbol)
}

func OrderKey(hash common.Hash) string {
	return PrefixOrder + hash.Hex()
}

func TradeKey(id string) string {
	return PrefixTrade + id
}

func HoldingKey(token, owner common.Address) string {
	return PrefixHolding + token.Hex() + "/" + owner.Hex()
}

// CustodyAccount derives the bank account that pools a token for the vault.
func CustodyAccount(vault, token common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("custody"), vault.Bytes(), token.Bytes())[12:])
}

// MarketID derives a market id from its creator, symbol and sequence number.
func MarketID(admin common.Address, symbol string, seq uint64) common.Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], seq)
	return common.BytesToAddress(crypto.Keccak256([]byte("market"), admin.Bytes(), []byte(strings.ToUpper(symbol)), n[:])[12:])
}
