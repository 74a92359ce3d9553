package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRun_PreservesInputOrder(t *testing.T) {
	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 0, "c": 15 * time.Millisecond}
	var mu sync.Mutex
	var completed []string

	got, err := Run(context.Background(), NewProcessor(3), []string{"a", "b", "c"}, func(_ context.Context, s string) (string, error) {
		time.Sleep(delays[s])
		mu.Lock()
		completed = append(completed, s)
		mu.Unlock()
		return s + "!", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a!", "b!", "c!"}, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if completed[0] != "b" {
		t.Errorf("completion order = %v, expected b to finish first", completed)
	}
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	_, err := Run(context.Background(), NewProcessor(3), items, func(_ context.Context, i int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return i, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > 3 || p < 1 {
		t.Errorf("peak concurrency = %d, want 1..3", p)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	got, err := Run(context.Background(), NewProcessor(0), []int(nil), func(context.Context, int) (int, error) {
		t.Fatal("worker must not run")
		return 0, nil
	})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestRun_FirstErrorStopsRemainingItems(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	items := []int{0, 1, 2, 3, 4, 5}

	_, err := Run(context.Background(), NewProcessor(1), items, func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		if i == 1 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("worker calls = %d, want 2 with a single lane", n)
	}
}

func TestCollect_CapturesPerItemErrors(t *testing.T) {
	items := []string{"ok-1", "bad", "ok-2"}
	got := Collect(context.Background(), NewProcessor(2), items, func(_ context.Context, s string) (int, error) {
		if s == "bad" {
			return 0, fmt.Errorf("cannot update %s", s)
		}
		return len(s), nil
	})

	if len(got) != 3 {
		t.Fatalf("got %d outcomes", len(got))
	}
	for i, o := range got {
		if o.Index != i || o.Input != items[i] {
			t.Errorf("outcome %d = %+v", i, o)
		}
	}
	if got[1].Err == nil || got[0].Err != nil || got[2].Err != nil {
		t.Errorf("errors = %v, %v, %v", got[0].Err, got[1].Err, got[2].Err)
	}
	if got[2].Value != 4 {
		t.Errorf("value = %d, want 4", got[2].Value)
	}
}

func TestCollect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Collect(ctx, NewProcessor(2), []int{1, 2}, func(context.Context, int) (int, error) {
		t.Error("worker must not run on a canceled context")
		return 0, nil
	})
	for _, o := range got {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("outcome %d err = %v, want context.Canceled", o.Index, o.Err)
		}
	}
}
