package coordinator

import (
	"testing"

	"github.com/EDITD/redis-data-transfer/internal/transfer"
)

func TestInjectEndSendsExactlyN(t *testing.T) {
	q := make(chan transfer.Envelope[string], 8)
	injectEnd(q, 3)
	close(q)

	var count int
	for env := range q {
		if !env.End {
			t.Fatalf("expected only End envelopes, got %+v", env)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestInjectEndZeroIsNoop(t *testing.T) {
	q := make(chan transfer.Envelope[string], 1)
	injectEnd(q, 0)
	select {
	case env := <-q:
		t.Fatalf("unexpected envelope %+v", env)
	default:
	}
}
