package settlement

// SettlementSplit describes how a delivered trade's locked collateral is released.
type SettlementSplit struct {
	// Reward is taken out of the buyer's collateral and paid to the seller.
	Reward uint64
	// SellerPayout leaves custody to the seller: seller collateral plus reward.
	SellerPayout uint64
	// SellerRetained stays on the seller's ledger balance as payment for the tokens.
	SellerRetained uint64
}

// Settle sizes the settlement release. The reward is capped at the buyer's
// collateral so the split never pays out more than was locked.
func Settle(amount, price, rewardBps, buyerCollateral, sellerCollateral uint64) (SettlementSplit, error) {
	reward, err := Reward(amount, price, rewardBps)
	if err != nil {
		return SettlementSplit{}, err
	}
	reward = min(reward, buyerCollateral)
	payout, err := Add(sellerCollateral, reward)
	if err != nil {
		return SettlementSplit{}, err
	}
	return SettlementSplit{
		Reward:         reward,
		SellerPayout:   payout,
		SellerRetained: buyerCollateral - reward,
	}, nil
}

// CancellationSplit describes how a timed-out trade's collateral is returned.
type CancellationSplit struct {
	Penalty      uint64
	BuyerPayout  uint64
	SellerPayout uint64
}

// Cancel sizes the timeout cancellation. BuyerPayout + SellerPayout always
// equals buyerCollateral + sellerCollateral.
func Cancel(amount, price, penaltyBps, buyerCollateral, sellerCollateral uint64) (CancellationSplit, error) {
	penalty, err := Penalty(amount, price, penaltyBps, sellerCollateral)
	if err != nil {
		return CancellationSplit{}, err
	}
	buyer, err := Add(buyerCollateral, penalty)
	if err != nil {
		return CancellationSplit{}, err
	}
	return CancellationSplit{
		Penalty:      penalty,
		BuyerPayout:  buyer,
		SellerPayout: sellerCollateral - penalty,
	}, nil
}
