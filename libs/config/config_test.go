package config

import "testing"

func TestIntParsesAndFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_SET", "42")
	t.Setenv("TEST_INT_JUNK", "forty-two")

	if got := Int("TEST_INT_SET", 7); got != 42 {
		t.Fatalf("Int set = %d, want 42", got)
	}
	if got := Int("TEST_INT_JUNK", 7); got != 7 {
		t.Fatalf("Int junk = %d, want fallback 7", got)
	}
	if got := Int("TEST_INT_MISSING", 7); got != 7 {
		t.Fatalf("Int missing = %d, want fallback 7", got)
	}
}

func TestBoolRecognizesTruthyForms(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "On"} {
		t.Setenv("TEST_BOOL", v)
		if !Bool("TEST_BOOL", false) {
			t.Fatalf("Bool(%q) = false, want true", v)
		}
	}
	t.Setenv("TEST_BOOL", "nope")
	if Bool("TEST_BOOL", true) {
		t.Fatal("Bool(nope) = true, want false")
	}
	if !Bool("TEST_BOOL_MISSING", true) {
		t.Fatal("Bool missing = false, want fallback true")
	}
}
