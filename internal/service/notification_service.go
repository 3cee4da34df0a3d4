package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/pkg/metrics"
)

// NotificationService receives committed notifications from the ledger and
// the trading engine. It appends them to a JSONL file, persists them through
// an optional repo, keeps the newest ones in memory and pushes each one to
// live subscribers.
type NotificationService struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan *model.Notification
	done    chan struct{}
	logFile *os.File
	buffer  *notificationBuffer
	repo    NotificationRepo
	subs    map[string]chan *model.Notification
}

type NotificationRepo interface {
	Insert(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error)
}

type NotificationOptions struct {
	// LogDir receives notifications-YYYY-MM-DD.jsonl; empty disables the file.
	LogDir  string
	Buffer  int
	History int
	Repo    NotificationRepo
}

func NewNotificationService(opts NotificationOptions) (*NotificationService, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	svc := &NotificationService{
		ch:     make(chan *model.Notification, opts.Buffer),
		done:   make(chan struct{}),
		buffer: newNotificationBuffer(opts.History),
		repo:   opts.Repo,
		subs:   make(map[string]chan *model.Notification),
	}
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0755); err != nil {
			return nil, err
		}
		// 按启动日期命名 (MVP)
		filename := filepath.Join(opts.LogDir, "notifications-"+time.Now().Format("2006-01-02")+".jsonl")
		f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		svc.logFile = f
	}

	go svc.process()
	return svc, nil
}

// Publish never blocks the operation that produced the notifications.
func (s *NotificationService) Publish(_ context.Context, items ...*model.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for _, n := range items {
		if n == nil {
			continue
		}
		s.buffer.Add(n)
		for id, sub := range s.subs {
			select {
			case sub <- n:
			default:
				logger.Warn("notification subscriber is slow, dropping", "subscriber", id, "operation", n.Operation)
			}
		}
		select {
		case s.ch <- n:
		default:
			metrics.NotificationsDropped.Inc()
			logger.Warn("notification buffer full, dropping", "operation", n.Operation, "id", n.ID)
		}
	}
}

// Subscribe registers a live listener. The returned cancel func must be
// called once the listener goes away.
func (s *NotificationService) Subscribe(size int) (<-chan *model.Notification, func()) {
	if size <= 0 {
		size = 64
	}
	id := uuid.NewString()
	ch := make(chan *model.Notification, size)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

func (s *NotificationService) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, filter)
		if err == nil {
			return records, nil
		}
		logger.LogError(ctx, err, "notification repo list failed, serving from memory")
	}
	return s.buffer.List(filter), nil
}

func (s *NotificationService) process() {
	defer close(s.done)
	var encoder *json.Encoder
	if s.logFile != nil {
		encoder = json.NewEncoder(s.logFile)
	}
	for n := range s.ch {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), n); err != nil {
				logger.Error("failed to persist notification", "id", n.ID, "error", err)
			}
		}
		if encoder != nil {
			if err := encoder.Encode(n); err != nil {
				logger.Error("failed to write notification log", "id", n.ID, "error", err)
			}
		}
	}
}

// Close drains pending notifications and disconnects subscribers.
func (s *NotificationService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	for id, sub := range s.subs {
		close(sub)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	<-s.done
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

type notificationBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.Notification
	nextIndex int
}

func newNotificationBuffer(maxSize int) *notificationBuffer {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &notificationBuffer{
		maxSize: maxSize,
		records: make([]*model.Notification, 0, maxSize),
	}
}

func (b *notificationBuffer) Add(n *model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, n)
		return
	}
	b.records[b.nextIndex] = n
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

// List returns matches newest first.
func (b *notificationBuffer) List(filter model.NotificationFilter) []*model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := filter.Limit
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.Notification, 0, limit)
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		n := b.records[idx]
		if !filter.Match(n) {
			continue
		}
		results = append(results, n)
		if len(results) >= limit {
			break
		}
	}
	return results
}
