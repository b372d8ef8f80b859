package core

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := NewClient("1.2.3.4:5", 0)

	if err := r.Register("alice", c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if identity, ok := r.Identity(c); !ok || identity != "alice" {
		t.Fatalf("Identity = %q, %v", identity, ok)
	}
	if got, ok := r.Client("alice"); !ok || got != c {
		t.Fatalf("Client(alice) = %v, %v", got, ok)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	a := NewClient("a", 0)
	b := NewClient("b", 0)

	if err := r.Register("alice", a); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("alice", b); !errors.Is(err, ErrIdentityTaken) {
		t.Fatalf("second Register err = %v, want ErrIdentityTaken", err)
	}
	// The loser must not be visible anywhere.
	if _, ok := r.Identity(b); ok {
		t.Fatal("rejected client resolved to an identity")
	}
}

func TestRegistryRejectsInvalidIdentity(t *testing.T) {
	r := NewRegistry()
	c := NewClient("a", 0)

	for _, identity := range []string{"", "with space", "with:colon", "with,comma"} {
		if err := r.Register(identity, c); !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("Register(%q) err = %v, want ErrInvalidIdentity", identity, err)
		}
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	c := NewClient("a", 0)

	if err := r.Register("alice", c); err != nil {
		t.Fatal(err)
	}
	if identity, ok := r.Unregister(c); !ok || identity != "alice" {
		t.Fatalf("Unregister = %q, %v", identity, ok)
	}
	if _, ok := r.Unregister(c); ok {
		t.Fatal("second Unregister reported a removal")
	}
	if _, ok := r.Client("alice"); ok {
		t.Fatal("identity still resolvable after Unregister")
	}
	// Identity is free for reuse.
	if err := r.Register("alice", NewClient("b", 0)); err != nil {
		t.Fatalf("re-Register after Unregister: %v", err)
	}
}

func TestRegistryConcurrentRegisterSameIdentity(t *testing.T) {
	const contenders = 32

	r := NewRegistry()
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, failures int

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Register("alice", NewClient("c", 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrIdentityTaken) {
				failures++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || failures != contenders-1 {
		t.Fatalf("successes = %d, failures = %d; want exactly 1 and %d", successes, failures, contenders-1)
	}
}

func TestRegistrySnapshots(t *testing.T) {
	r := NewRegistry()
	clients := make([]*Client, 0, 3)
	for i, identity := range []string{"carol", "alice", "bob"} {
		c := NewClient(fmt.Sprintf("c%d", i), 0)
		if err := r.Register(identity, c); err != nil {
			t.Fatal(err)
		}
		clients = append(clients, c)
	}

	if got, want := r.Identities(), []string{"alice", "bob", "carol"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Identities = %v, want %v", got, want)
	}

	if got := r.Clients(nil); len(got) != 3 {
		t.Fatalf("Clients(nil) len = %d, want 3", len(got))
	}
	for _, c := range r.Clients(clients[0]) {
		if c == clients[0] {
			t.Fatal("excluded client present in snapshot")
		}
	}
}
