package catalog_test

import (
	"errors"
	"testing"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/catalog/memory"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := catalog.NewRegistry()
	conn := memory.MustNew()

	if err := reg.Register("hr", conn); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	got, ok := reg.Lookup("HR")
	if !ok {
		t.Fatal("Lookup() should match owners case-insensitively")
	}
	if got != conn {
		t.Error("Lookup() returned a different connector")
	}

	if _, ok := reg.Lookup("SH"); ok {
		t.Error("Lookup() found an owner that was never registered")
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := catalog.NewRegistry()
	conn := memory.MustNew()

	if err := reg.Register("HR", conn); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	err := reg.Register("hr", conn)
	if !errors.Is(err, catalog.ErrDuplicateOwner) {
		t.Errorf("expected ErrDuplicateOwner, got %v", err)
	}
}

func TestRegistry_InvalidArguments(t *testing.T) {
	reg := catalog.NewRegistry()

	if err := reg.Register("", memory.MustNew()); err == nil {
		t.Error("expected error for empty owner")
	}
	if err := reg.Register("HR", nil); err == nil {
		t.Error("expected error for nil connector")
	}
}

func TestRegistry_Owners(t *testing.T) {
	reg := catalog.NewRegistry()
	conn := memory.MustNew()
	for _, owner := range []string{"SH", "HR", "OE"} {
		if err := reg.Register(owner, conn); err != nil {
			t.Fatalf("Register(%s) failed: %v", owner, err)
		}
	}

	owners := reg.Owners()
	want := []string{"HR", "OE", "SH"}
	if len(owners) != len(want) {
		t.Fatalf("Owners() = %v, want %v", owners, want)
	}
	for i := range want {
		if owners[i] != want[i] {
			t.Errorf("Owners()[%d] = %s, want %s", i, owners[i], want[i])
		}
	}
	if reg.Count() != 3 {
		t.Errorf("Count() = %d, want 3", reg.Count())
	}
}
