package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Notification is one structured record published for off-chain observers.
type Notification struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	Module    common.Address `json:"module"`
	Fields    Fields         `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

type Fields map[string]any

// Batch collects the notifications of one operation until it commits.
type Batch struct {
	items []*Notification
}

func (b *Batch) Emit(module common.Address, now int64, op string, fields Fields) {
	if b == nil {
		return
	}
	b.items = append(b.items, &Notification{
		ID:        uuid.NewString(),
		Operation: op,
		Module:    module,
		Fields:    fields,
		CreatedAt: time.Unix(now, 0).UTC(),
	})
}

func (b *Batch) Items() []*Notification {
	if b == nil {
		return nil
	}
	return b.items
}

// NotificationFilter narrows a notification listing. Zero fields match all.
type NotificationFilter struct {
	Module    *common.Address
	Operation string
	From      *time.Time
	To        *time.Time
	Limit     int
}

func (f NotificationFilter) Match(n *Notification) bool {
	if n == nil {
		return false
	}
	if f.Module != nil && n.Module != *f.Module {
		return false
	}
	if f.Operation != "" && n.Operation != f.Operation {
		return false
	}
	if f.From != nil && n.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && n.CreatedAt.After(*f.To) {
		return false
	}
	return true
}
