package worker

import (
	"context"
	"errors"
	"testing"
)

func TestRunCollectsInOrder(t *testing.T) {
	p := &Pool{Workers: 4}
	results, err := p.Run(context.Background(), 100, func(_ context.Context, i int) (any, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, r := range results {
		if r.(int) != i*i {
			t.Fatalf("results[%d] = %v, want %d", i, r, i*i)
		}
	}
}

func TestRunSurfacesSlotError(t *testing.T) {
	p := &Pool{Workers: 4}
	boom := errors.New("boom")
	_, err := p.Run(context.Background(), 16, func(_ context.Context, i int) (any, error) {
		if i == 9 {
			return nil, boom
		}
		return i, nil
	})
	if err == nil {
		t.Fatal("want error, got nil")
	}
	var slotErr *SlotError
	if !errors.As(err, &slotErr) {
		t.Fatalf("want *SlotError, got %T: %v", err, err)
	}
	if slotErr.Index != 9 {
		t.Fatalf("slotErr.Index = %d, want 9", slotErr.Index)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("want errors.Is(err, boom), got %v", err)
	}
}

func TestRunZeroTasks(t *testing.T) {
	p := &Pool{Workers: 8}
	results, err := p.Run(context.Background(), 0, func(context.Context, int) (any, error) {
		t.Fatal("fn should not be called for zero tasks")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("want empty results, got %v", results)
	}
}
