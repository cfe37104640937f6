package entity

import (
	"context"
	"testing"
	"time"
)

func TestRegistrySharesClients(t *testing.T) {
	st := newMockStore()
	st.definitions = testDefinitions()
	r := NewRegistry(st)

	a := r.Client(Config{ProjectID: "proj-1"})
	b := r.Client(Config{ProjectID: "proj-1"})
	if a != b {
		t.Error("equal configs returned distinct clients")
	}

	c := r.Client(Config{ProjectID: "proj-2"})
	if a == c {
		t.Error("different projects share a client")
	}

	d := r.Client(Config{ProjectID: "proj-1", CacheTTL: time.Minute})
	if a == d {
		t.Error("different cache ttl shares a client")
	}
}

func TestRegistryClearSchemaCaches(t *testing.T) {
	st := newMockStore()
	st.definitions = testDefinitions()
	r := NewRegistry(st)

	c := r.Client(Config{ProjectID: "proj-1"})
	if _, err := c.Definition(context.Background(), "def-books"); err != nil {
		t.Fatal(err)
	}
	if st.definitionCalls != 1 {
		t.Fatalf("definition fetches = %d", st.definitionCalls)
	}

	r.ClearSchemaCaches(context.Background())
	if _, err := c.Definition(context.Background(), "def-books"); err != nil {
		t.Fatal(err)
	}
	if st.definitionCalls != 2 {
		t.Errorf("definition fetches = %d, want 2 after clear", st.definitionCalls)
	}
}
