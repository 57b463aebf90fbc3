package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// idSource is a mutable backing store for the filter's loader.
type idSource struct {
	ids   []string
	err   error
	loads int
}

func (s *idSource) load(ctx context.Context) ([]string, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.ids, nil
}

func seededFilter(t *testing.T, src *idSource) *IDFilter {
	t.Helper()
	f := NewIDFilter(src.load)
	if err := f.Reload(context.Background()); err != nil {
		t.Fatalf("seed filter: %v", err)
	}
	return f
}

func TestIDFilter_NoFalseNegatives(t *testing.T) {
	src := &idSource{}
	for i := 0; i < 500; i++ {
		src.ids = append(src.ids, fmt.Sprintf("00000000-0000-0000-0000-%012d", i))
	}

	f := seededFilter(t, src)

	for _, id := range src.ids {
		if !f.MayContain(context.Background(), id) {
			t.Fatalf("seeded id %s reported as unknown", id)
		}
	}
}

func TestIDFilter_ResyncsOnMiss(t *testing.T) {
	src := &idSource{ids: []string{"11111111-1111-1111-1111-111111111111"}}
	f := seededFilter(t, src)

	// Id appears in the backing store after the filter was seeded, as a
	// catalog write from another process would.
	src.ids = append(src.ids, "22222222-2222-2222-2222-222222222222")

	if !f.MayContain(context.Background(), "22222222-2222-2222-2222-222222222222") {
		t.Fatal("id present in the backing store reported as unknown")
	}
	if src.loads != 2 {
		t.Fatalf("expected one resync load, got %d total loads", src.loads)
	}
}

func TestIDFilter_MissAfterResyncIsDefinitive(t *testing.T) {
	src := &idSource{ids: []string{"11111111-1111-1111-1111-111111111111"}}
	f := seededFilter(t, src)

	if f.MayContain(context.Background(), "33333333-3333-3333-3333-333333333333") {
		t.Fatal("id absent from the backing store reported as known")
	}
	if src.loads != 2 {
		t.Fatalf("expected a resync before rejecting, got %d total loads", src.loads)
	}
}

func TestIDFilter_FailsOpen(t *testing.T) {
	src := &idSource{ids: []string{"11111111-1111-1111-1111-111111111111"}}
	f := seededFilter(t, src)

	src.err = errors.New("store down")

	if !f.MayContain(context.Background(), "33333333-3333-3333-3333-333333333333") {
		t.Fatal("miss with a failed resync must defer to the catalog")
	}
}

func TestIDFilter_UnseededAnswersTrue(t *testing.T) {
	src := &idSource{err: errors.New("store down")}
	f := NewIDFilter(src.load)

	if !f.MayContain(context.Background(), "33333333-3333-3333-3333-333333333333") {
		t.Fatal("unseeded filter must not reject")
	}
}
