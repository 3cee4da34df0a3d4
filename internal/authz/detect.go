// Package authz decides which module is invoking a privileged ledger
// operation and whether that module may do so.
package authz

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// Instruction is one entry of the host-provided instruction chain.
type Instruction struct {
	ProgramID common.Address `json:"program_id"`
	Name      string         `json:"name,omitempty"`
}

// InstructionChainReader exposes the instructions of the executing
// transaction and the index of the one currently running.
type InstructionChainReader interface {
	CurrentIndex() (int, error)
	LoadInstruction(index int) (Instruction, error)
}

// Infrastructure modules never count as callers.
var (
	SystemModule        = common.HexToAddress("0x0000000000000000000000000000000000000000")
	ComputeBudgetModule = common.HexToAddress("0x000000000000000000000000000000000000c0b9")
	IntrospectionModule = common.HexToAddress("0x00000000000000000000000000000000000015a7")
)

func isInfrastructure(id common.Address) bool {
	return id == SystemModule || id == ComputeBudgetModule || id == IntrospectionModule
}

// DetectCaller walks the chain backward from current+1 down to 0 and
// returns the first module that is not infrastructure. Entries that cannot
// be loaded are skipped.
func DetectCaller(r InstructionChainReader) (common.Address, error) {
	if r == nil {
		return common.Address{}, apperrors.ErrFailedToLoadInstruction.Withf("no instruction chain")
	}
	current, err := r.CurrentIndex()
	if err != nil {
		return common.Address{}, apperrors.ErrFailedToLoadInstruction.Withf("current index: %v", err)
	}
	for i := current + 1; i >= 0; i-- {
		ix, err := r.LoadInstruction(i)
		if err != nil {
			continue
		}
		if isInfrastructure(ix.ProgramID) {
			continue
		}
		return ix.ProgramID, nil
	}
	return common.Address{}, apperrors.ErrFailedToLoadInstruction
}
