package live

import (
	"context"
	"errors"
	"testing"
)

func TestObserveFiltersByDependency(t *testing.T) {
	b := NewBus()
	var accountsCalls, allCalls int
	b.Observe([]Collection{Accounts}, func([]Collection) { accountsCalls++ })
	b.Observe(nil, func([]Collection) { allCalls++ })

	b.Publish(Categories)
	b.Publish(Accounts, Transactions)

	if accountsCalls != 1 {
		t.Errorf("accounts observer called %d times, want 1", accountsCalls)
	}
	if allCalls != 2 {
		t.Errorf("catch-all observer called %d times, want 2", allCalls)
	}
}

func TestCancelStopsNotifications(t *testing.T) {
	b := NewBus()
	calls := 0
	cancel := b.Observe(nil, func([]Collection) { calls++ })
	b.Publish(Transactions)
	cancel()
	cancel()
	b.Publish(Transactions)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("observers left: %d", b.Len())
	}
}

func TestObserverMayCancelDuringPublish(t *testing.T) {
	b := NewBus()
	var cancel func()
	cancel = b.Observe(nil, func([]Collection) { cancel() })
	b.Publish(Accounts)
	if b.Len() != 0 {
		t.Fatal("observer should have removed itself")
	}
}

func TestSubscribeRerunsQuery(t *testing.T) {
	b := NewBus()
	count := 0
	query := func(context.Context) (int, error) {
		count++
		return count * 10, nil
	}

	var got []int
	initial, cancel, err := Subscribe(context.Background(), b, []Collection{Transactions}, query, func(v int, err error) {
		if err != nil {
			t.Errorf("onChange error: %v", err)
		}
		got = append(got, v)
	})
	if err != nil {
		t.Fatal(err)
	}
	if initial != 10 {
		t.Fatalf("initial = %d", initial)
	}

	b.Publish(Transactions)
	b.Publish(Categories)
	b.Publish(Transactions)
	cancel()
	b.Publish(Transactions)

	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("updates = %v, want [20 30]", got)
	}
}

func TestSubscribeInitialError(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	_, cancel, err := Subscribe(context.Background(), b, nil, func(context.Context) (string, error) {
		return "", boom
	}, func(string, error) {})
	defer cancel()
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if b.Len() != 0 {
		t.Fatal("failed subscribe should not register an observer")
	}
}

func TestSubscribeEndsWithContext(t *testing.T) {
	b := NewBus()
	ctx, cancelCtx := context.WithCancel(context.Background())
	calls := 0
	_, _, err := Subscribe(ctx, b, nil, func(context.Context) (int, error) { return 0, nil }, func(int, error) { calls++ })
	if err != nil {
		t.Fatal(err)
	}
	cancelCtx()
	b.Publish(Accounts)
	if calls != 0 {
		t.Fatalf("observer ran after context cancel")
	}
}
