package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedLockSerializesSameKey(t *testing.T) {
	locks := newKeyedLock()
	unlock := locks.Lock("ada@example.com")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("ada@example.com")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatalf("second holder acquired the lock early")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second holder never acquired the lock")
	}
}

func TestKeyedLockIndependentKeysAndCleanup(t *testing.T) {
	locks := newKeyedLock()
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c", "a", "b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			locks.Lock(key)()
		}(key)
	}
	wg.Wait()

	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	if n := locks.size(); n != 2 {
		t.Fatalf("expected 2 held keys, got %d", n)
	}
	unlockA()
	unlockB()
	if n := locks.size(); n != 0 {
		t.Fatalf("expected empty lock table, got %d", n)
	}
}
