package service

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/premarket/internal/model"
)

func note(op string, at int64) *model.Notification {
	var b model.Batch
	b.Emit(common.HexToAddress("0x0b"), at, op, model.Fields{"n": at})
	return b.Items()[0]
}

type stubRepo struct {
	inserted chan *model.Notification
}

func (r *stubRepo) Insert(_ context.Context, n *model.Notification) error {
	r.inserted <- n
	return nil
}

func (r *stubRepo) List(context.Context, model.NotificationFilter) ([]*model.Notification, error) {
	return nil, assert.AnError
}

func TestNotificationServiceWritesAndLists(t *testing.T) {
	dir := t.TempDir()
	repo := &stubRepo{inserted: make(chan *model.Notification, 8)}
	svc, err := NewNotificationService(NotificationOptions{LogDir: dir, History: 3, Repo: repo})
	require.NoError(t, err)

	svc.Publish(context.Background(), note("OrderPlaced", 1), note("OrdersMatched", 2), nil)
	svc.Publish(context.Background(), note("TradeSettled", 3), note("OrderPlaced", 4))

	select {
	case n := <-repo.inserted:
		assert.Equal(t, "OrderPlaced", n.Operation)
	case <-time.After(time.Second):
		t.Fatal("repo never received a notification")
	}

	// repo List fails, so the ring buffer answers; it holds the newest three
	all, err := svc.List(context.Background(), model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "OrderPlaced", all[0].Operation)
	assert.Equal(t, "TradeSettled", all[1].Operation)
	assert.Equal(t, "OrdersMatched", all[2].Operation)

	placed, err := svc.List(context.Background(), model.NotificationFilter{Operation: "OrderPlaced"})
	require.NoError(t, err)
	assert.Len(t, placed, 1)

	svc.Close()
	svc.Close()

	files, err := filepath.Glob(filepath.Join(dir, "notifications-*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	for sc := bufio.NewScanner(f); sc.Scan(); {
		lines++
	}
	assert.Equal(t, 4, lines)
}

func TestNotificationSubscribers(t *testing.T) {
	svc, err := NewNotificationService(NotificationOptions{})
	require.NoError(t, err)
	defer svc.Close()

	ch, cancel := svc.Subscribe(4)
	svc.Publish(context.Background(), note("TradeCancelled", 10))

	select {
	case n := <-ch:
		assert.Equal(t, "TradeCancelled", n.Operation)
	case <-time.After(time.Second):
		t.Fatal("subscriber got nothing")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	svc.Publish(context.Background(), note("TradeSettled", 11))
}

func TestSubscribeAfterCloseIsClosed(t *testing.T) {
	svc, err := NewNotificationService(NotificationOptions{})
	require.NoError(t, err)
	svc.Close()

	ch, cancel := svc.Subscribe(1)
	defer cancel()
	_, open := <-ch
	assert.False(t, open)
	svc.Publish(context.Background(), note("OrderPlaced", 1))
}
