// Package host models what the execution environment hands every
// operation: the signer, the trusted time and the instruction chain.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/authz"
	"github.com/GoPolymarket/premarket/internal/model"
)

// Call is the per-operation context supplied by the host.
type Call struct {
	Signer common.Address
	Now    int64
	Chain  authz.InstructionChainReader
}

// Transaction is an in-process instruction chain.
type Transaction struct {
	Instructions []authz.Instruction
	Current      int
}

func (t *Transaction) CurrentIndex() (int, error) {
	if t == nil || len(t.Instructions) == 0 {
		return 0, fmt.Errorf("empty transaction")
	}
	if t.Current < 0 || t.Current >= len(t.Instructions) {
		return 0, fmt.Errorf("current index %d out of range", t.Current)
	}
	return t.Current, nil
}

func (t *Transaction) LoadInstruction(index int) (authz.Instruction, error) {
	if t == nil || index < 0 || index >= len(t.Instructions) {
		return authz.Instruction{}, fmt.Errorf("instruction %d not found", index)
	}
	return t.Instructions[index], nil
}

// Invoke builds the chain for a top-level call into module: a compute
// budget prefix followed by the module's own instruction.
func Invoke(module common.Address, name string) *Transaction {
	return &Transaction{
		Instructions: []authz.Instruction{
			{ProgramID: authz.ComputeBudgetModule, Name: "set_compute_unit_limit"},
			{ProgramID: module, Name: name},
		},
		Current: 1,
	}
}

// Clock is the trusted wall-clock source.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// FixedClock always reports the same time; tests advance it by assignment.
type FixedClock struct {
	T int64
}

func (c *FixedClock) Now() int64 { return c.T }

// Sink receives notifications after the operation that produced them commits.
type Sink interface {
	Publish(ctx context.Context, items ...*model.Notification)
}

type NopSink struct{}

func (NopSink) Publish(context.Context, ...*model.Notification) {}
