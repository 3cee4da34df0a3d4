package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AmountRequest is the body of deposit and withdraw.
type AmountRequest struct {
	Token  common.Address `json:"token" binding:"required"`
	Amount uint64         `json:"amount"`
}

// AddressRequest carries a single module or relayer id.
type AddressRequest struct {
	Address common.Address `json:"address" binding:"required"`
}

type CreateMarketRequest struct {
	Symbol          string `json:"symbol" binding:"required"`
	Name            string `json:"name" binding:"required"`
	SettleTimeLimit int64  `json:"settle_time_limit" binding:"required"`
}

type MapTokenRequest struct {
	Token common.Address `json:"token" binding:"required"`
}

// SignedOrderRequest is a PreOrder with the trader's EIP-712 signature.
type SignedOrderRequest struct {
	Order     PreOrder      `json:"order" binding:"required"`
	Signature hexutil.Bytes `json:"signature" binding:"required"`
}

type MatchOrdersRequest struct {
	Buy           PreOrder      `json:"buy" binding:"required"`
	BuySignature  hexutil.Bytes `json:"buy_signature" binding:"required"`
	Sell          PreOrder      `json:"sell" binding:"required"`
	SellSignature hexutil.Bytes `json:"sell_signature" binding:"required"`
	// Fill defaults to the smaller remaining quantity.
	Fill *uint64 `json:"fill,omitempty"`
}
