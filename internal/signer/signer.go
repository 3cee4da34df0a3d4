package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GoPolymarket/premarket/internal/model"
)

// Signer signs pre-orders for one trader key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	domain  *Domain
}

// NewSigner parses a hex private key, with or without 0x.
func NewSigner(privateKeyHex string, domain *Domain) (*Signer, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	if len(privateKeyHex) > 1 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return FromKey(key, domain), nil
}

func FromKey(key *ecdsa.PrivateKey, domain *Domain) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		domain:  domain,
	}
}

// SignOrder returns the 65 byte [R || S || V] signature over the order
// digest, V in {27, 28}.
func (s *Signer) SignOrder(order model.PreOrder) ([]byte, error) {
	digest := s.domain.Digest(order)
	signature, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, err
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return signature, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}
