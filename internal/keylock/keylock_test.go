package keylock

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()
	const workers = 50

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("event-1")
			defer kl.Unlock("event-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected counter %d, got %d", workers, counter)
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := New()
	kl.Lock("a")
	// Must not block: "b" is a different key.
	kl.Lock("b")
	kl.Unlock("b")
	kl.Unlock("a")
}

func TestKeyLock_DropsIdleEntries(t *testing.T) {
	kl := New()
	kl.Lock("a")
	kl.Unlock("a")
	if len(kl.locks) != 0 {
		t.Fatalf("expected no retained entries, got %d", len(kl.locks))
	}
}
