package transfer

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/EDITD/redis-data-transfer/internal/stats"
)

func noopTracker() *stats.Tracker {
	return stats.New("test", make(chan stats.Event, 16))
}

func TestFinalizeCheckerKeepsOnlyMissingKeys(t *testing.T) {
	ctx := context.Background()
	existsZero := redis.NewIntCmd(ctx)
	existsZero.SetVal(0)
	existsOne := redis.NewIntCmd(ctx)
	existsOne.SetVal(1)

	cmds := []redis.Cmder{existsZero, existsOne}
	batch := []string{"missing", "present"}

	got := finalizeChecker(cmds, batch)
	if len(got) != 1 || got[0] != "missing" {
		t.Fatalf("got %v, want [missing]", got)
	}
}

func TestFinalizeReaderZipsInOrderAndFlagsNull(t *testing.T) {
	ctx := context.Background()
	ok := redis.NewStringCmd(ctx)
	ok.SetVal("blob")
	empty := redis.NewStringCmd(ctx)
	empty.SetVal("")

	cmds := []redis.Cmder{ok, empty}
	batch := []string{"k1", "k2"}

	got := finalizeReader(cmds, batch)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Key != "k1" || got[0].Value != "blob" || got[0].Null {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Key != "k2" || !got[1].Null {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestReceiveBatchStopsOnEndEnvelope(t *testing.T) {
	ch := make(chan Envelope[string], 1)
	ch <- Envelope[string]{End: true}

	batch, ok := receiveBatch(context.Background(), noopTracker(), ch)
	if ok || batch != nil {
		t.Fatalf("receiveBatch() = (%v, %v), want (nil, false)", batch, ok)
	}
}

func TestReceiveBatchReturnsItems(t *testing.T) {
	ch := make(chan Envelope[string], 1)
	ch <- Envelope[string]{Items: []string{"a", "b"}}

	batch, ok := receiveBatch(context.Background(), noopTracker(), ch)
	if !ok || len(batch) != 2 {
		t.Fatalf("receiveBatch() = (%v, %v)", batch, ok)
	}
}
