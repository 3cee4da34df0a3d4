package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GoPolymarket/premarket/internal/model"
)

const (
	EIP712DomainName    = "Premarket Trade"
	EIP712DomainVersion = "1"
)

var (
	// EIP712DomainTypeHash = keccak256("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	PreOrderTypeHash = crypto.Keccak256Hash([]byte("PreOrder(address trader,address collateralToken,address market,uint64 amount,uint64 price,bool isBuy,uint64 nonce,uint64 deadline)"))
)

// Domain binds order digests to one chain and one trading module.
type Domain struct {
	ChainID           int64
	VerifyingContract common.Address
	separator         common.Hash
}

// NewDomain pre-calculates the domain separator.
func NewDomain(chainID int64, verifyingContract common.Address) *Domain {
	// Manual ABI encode, every field is one 32 byte word
	data := make([]byte, 32*5)
	copy(data[0:32], EIP712DomainTypeHash.Bytes())
	copy(data[32:64], crypto.Keccak256([]byte(EIP712DomainName)))
	copy(data[64:96], crypto.Keccak256([]byte(EIP712DomainVersion)))
	copy(data[96:128], math.U256Bytes(big.NewInt(chainID)))
	copy(data[128+12:160], verifyingContract.Bytes())

	return &Domain{
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
		separator:         crypto.Keccak256Hash(data),
	}
}

func (d *Domain) Separator() common.Hash {
	return d.separator
}

// HashOrder is hashStruct(order).
func HashOrder(o model.PreOrder) common.Hash {
	// typeHash + 8 fields
	data := make([]byte, 32*9)
	copy(data[0:32], PreOrderTypeHash.Bytes())
	copy(data[32+12:64], o.Trader.Bytes())
	copy(data[64+12:96], o.CollateralToken.Bytes())
	copy(data[96+12:128], o.Market.Bytes())
	putUint(data[128:160], o.Amount)
	putUint(data[160:192], o.Price)
	if o.Side == model.SideBuy {
		data[223] = 1
	}
	putUint(data[224:256], o.Nonce)
	putUint(data[256:288], uint64(o.Deadline))
	return crypto.Keccak256Hash(data)
}

// Digest is keccak256("\x19\x01" || domainSeparator || hashStruct(order)).
// It doubles as the order's content key.
func (d *Domain) Digest(o model.PreOrder) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, d.separator.Bytes(), HashOrder(o).Bytes())
}

func putUint(word []byte, v uint64) {
	copy(word, math.U256Bytes(new(big.Int).SetUint64(v)))
}
