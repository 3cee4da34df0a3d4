package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/settlement"
)

var priceScale = decimal.NewFromInt(int64(settlement.PriceScale))

// displayPrice renders a fixed-point price as a decimal string, 500000 -> "0.5".
func displayPrice(price uint64) string {
	return decimal.NewFromUint64(price).Div(priceScale).String()
}

func displayValue(amount, price uint64) string {
	return decimal.NewFromUint64(amount).Mul(decimal.NewFromUint64(price)).Div(priceScale).String()
}

type OrderView struct {
	*model.OrderRecord
	PriceDisplay string `json:"price_display"`
}

func newOrderView(r *model.OrderRecord) OrderView {
	return OrderView{OrderRecord: r, PriceDisplay: displayPrice(r.Price)}
}

type TradeView struct {
	*model.TradeRecord
	PriceDisplay string `json:"price_display"`
	ValueDisplay string `json:"value_display"`
}

func newTradeView(t *model.TradeRecord) TradeView {
	return TradeView{
		TradeRecord:  t,
		PriceDisplay: displayPrice(t.Price),
		ValueDisplay: displayValue(t.FilledAmount, t.Price),
	}
}

func hexBytes(raw string) ([]byte, error) {
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		raw = "0x" + raw
	}
	return hexutil.Decode(raw)
}
