package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Products", "products"},
		{"spaces", "My Great Page", "my-great-page"},
		{"punctuation run", "hello,  world!!", "hello-world"},
		{"leading trailing", "  --Weird Name-- ", "weird-name"},
		{"digits", "Report 2024 v2", "report-2024-v2"},
		{"unicode stripped", "café au lait", "caf-au-lait"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Make(tt.in)
			if err != nil {
				t.Fatalf("Make(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMakeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "!!!", "---"} {
		if _, err := Make(in); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Make(%q) err = %v, want ErrEmptyName", in, err)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	got, err := Make(strings.Repeat("a", 150))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Errorf("len = %d, want 100", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with hyphen: %q", got)
	}
}

func TestUniqueNoCollision(t *testing.T) {
	probes := 0
	exists := func(ctx context.Context, defID, s string) (bool, error) {
		probes++
		return false, nil
	}
	got, err := Unique(context.Background(), "My Page", "def-1", exists)
	if err != nil {
		t.Fatal(err)
	}
	if got != "my-page" {
		t.Errorf("got %q, want my-page", got)
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}
}

func TestUniqueCollision(t *testing.T) {
	exists := func(ctx context.Context, defID, s string) (bool, error) {
		return s == "my-page", nil
	}
	got, err := Unique(context.Background(), "My Page", "def-1", exists)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "my-page-") {
		t.Fatalf("got %q, want my-page- prefix", got)
	}
	suffix := strings.TrimPrefix(got, "my-page-")
	if len(suffix) != 4 {
		t.Errorf("suffix %q, want 4 chars", suffix)
	}
}

func TestUniqueExhaustsAttempts(t *testing.T) {
	probes := 0
	exists := func(ctx context.Context, defID, s string) (bool, error) {
		probes++
		return true, nil
	}
	got, err := Unique(context.Background(), "busy", "def-1", exists)
	if err != nil {
		t.Fatal(err)
	}
	if probes != 100 {
		t.Errorf("probes = %d, want 100", probes)
	}
	if !strings.HasPrefix(got, "busy-") {
		t.Errorf("fallback slug %q missing base prefix", got)
	}
}

func TestUniqueProbeError(t *testing.T) {
	boom := errors.New("db down")
	exists := func(ctx context.Context, defID, s string) (bool, error) {
		return false, boom
	}
	if _, err := Unique(context.Background(), "x", "def-1", exists); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped db error", err)
	}
}
