package monitor

import "testing"

func sampleSeq(seq int) Sample { return Sample{Sequence: seq} }

func TestRing_PushBelowCapacity(t *testing.T) {
	r := newRing(4)
	r.push(sampleSeq(1))
	r.push(sampleSeq(2))

	if r.len() != 2 {
		t.Fatalf("len: got %d, want 2", r.len())
	}
	got := r.tail(4)
	if got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Errorf("tail: got %v", got)
	}
}

func TestRing_OverwritesOldest(t *testing.T) {
	r := newRing(3)
	for seq := 1; seq <= 5; seq++ {
		r.push(sampleSeq(seq))
	}

	if r.len() != 3 {
		t.Fatalf("len: got %d, want 3", r.len())
	}
	got := r.tail(3)
	for i, want := range []int{3, 4, 5} {
		if got[i].Sequence != want {
			t.Errorf("tail[%d]: got %d, want %d", i, got[i].Sequence, want)
		}
	}
}

func TestRing_TailShorterThanContents(t *testing.T) {
	r := newRing(5)
	for seq := 1; seq <= 5; seq++ {
		r.push(sampleSeq(seq))
	}

	got := r.tail(2)
	if len(got) != 2 || got[0].Sequence != 4 || got[1].Sequence != 5 {
		t.Errorf("tail(2): got %v", got)
	}
}

func TestRing_TailZero(t *testing.T) {
	r := newRing(3)
	r.push(sampleSeq(1))
	if got := r.tail(0); len(got) != 0 {
		t.Errorf("tail(0): got %d samples, want 0", len(got))
	}
}

func TestRing_CountLossesAcrossWrap(t *testing.T) {
	r := newRing(3)
	r.push(Sample{Sequence: 1, IsLoss: true})
	r.push(Sample{Sequence: 2})
	r.push(Sample{Sequence: 3, IsLoss: true})
	r.push(Sample{Sequence: 4, IsLoss: true}) // evicts the loss at seq 1

	if got := r.countLosses(); got != 2 {
		t.Errorf("countLosses: got %d, want 2", got)
	}
}
