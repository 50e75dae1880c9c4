package gen

import (
	"sync"
	"testing"
)

func TestSampleDimension(t *testing.T) {
	s := NewLatentSampler(64, 1)
	latent := s.Sample()
	if len(latent) != 64 {
		t.Errorf("latent length = %d, want 64", len(latent))
	}
	if s.Dim() != 64 {
		t.Errorf("Dim = %d, want 64", s.Dim())
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	a := NewLatentSampler(8, 42)
	b := NewLatentSampler(8, 42)
	for draw := 0; draw < 3; draw++ {
		va, vb := a.Sample(), b.Sample()
		for i := range va {
			if va[i] != vb[i] {
				t.Fatalf("draw %d component %d differs: %v vs %v", draw, i, va[i], vb[i])
			}
		}
	}
}

func TestRepeatedDrawsDiffer(t *testing.T) {
	s := NewLatentSampler(16, 7)
	first := s.Sample()
	second := s.Sample()
	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two consecutive draws produced identical vectors")
	}
}

func TestConcurrentSampling(t *testing.T) {
	s := NewLatentSampler(32, 99)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := s.Sample(); len(got) != 32 {
					t.Errorf("latent length = %d, want 32", len(got))
					return
				}
			}
		}()
	}
	wg.Wait()
}
