package signer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// Verifier checks that a pre-order was signed by its trader.
type Verifier struct {
	domain *Domain
}

func NewVerifier(domain *Domain) *Verifier {
	return &Verifier{domain: domain}
}

// Key is the content hash the order's lifecycle record is stored under.
func (v *Verifier) Key(order model.PreOrder) common.Hash {
	return v.domain.Digest(order)
}

// Recover returns the address that produced sig over order.
func (v *Verifier) Recover(order model.PreOrder, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, apperrors.ErrInvalidSignature.Withf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(v.domain.Digest(order).Bytes(), normalized)
	if err != nil {
		return common.Address{}, apperrors.ErrInvalidSignature.Withf("recover signer: %v", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify requires the recovered signer to equal order.Trader.
func (v *Verifier) Verify(order model.PreOrder, sig []byte) error {
	recovered, err := v.Recover(order, sig)
	if err != nil {
		return err
	}
	if recovered != order.Trader {
		return apperrors.ErrInvalidSignature.Withf("order signed by %s, trader is %s", recovered.Hex(), order.Trader.Hex())
	}
	return nil
}
