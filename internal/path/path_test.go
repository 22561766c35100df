package path

import "testing"

func TestReverseInsertsUnrollBeforeTrailingProjections(t *testing.T) {
	// pattern c (a, b): strip the constructor, then project into a pair
	// that no dispatch has forced
	s := Stack{}.Push(Strip).Push(Left)
	got := s.Reverse()
	want := Path{Strip, Unroll, Left}
	if !equal(got, want) {
		t.Fatalf("Reverse(%v) = %v, want %v", s, got, want)
	}
}

func TestReverseAllProjections(t *testing.T) {
	s := Stack{}.Push(Left).Push(Right)
	got := s.Reverse()
	want := Path{Unroll, Left, Unroll, Right}
	if !equal(got, want) {
		t.Fatalf("Reverse(%v) = %v, want %v", s, got, want)
	}
}

func TestReversePredRunsHaveNoUnroll(t *testing.T) {
	// the literal 2 compiles to pred.pred with no projections
	s := Stack{}.Push(Pred).Push(Pred)
	got := s.Reverse()
	want := Path{Pred, Pred}
	if !equal(got, want) {
		t.Fatalf("Reverse(%v) = %v, want %v", s, got, want)
	}
}

func TestCompareIsLexicographicWithPrefixFirst(t *testing.T) {
	a := Path{Left}
	b := Path{Left, Right}
	if !Less(a, b) {
		t.Errorf("prefix should order first")
	}
	if Less(b, a) {
		t.Errorf("extension should order after its prefix")
	}
	if Compare(a, a) != 0 {
		t.Errorf("equal paths should compare equal")
	}
	if !Less(Path{Left}, Path{Right}) {
		t.Errorf("left should order before right")
	}
}

func equal(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
