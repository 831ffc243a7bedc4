package payload

import (
	"math"
	"testing"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"true", Bool(true), "true"},
		{"integer", Number(10), "10"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"infinity", Number(math.Inf(-1)), "-Infinity"},
		{"text", Text("x"), "x"},
		{"blob", BlobOf(Blob{}), "[object Blob]"},
		{"sequence", Seq(Number(1), Null(), Text("a")), "1,,a"},
		{"mapping", Map(F("a", Number(1))), "[object Object]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapping_Order(t *testing.T) {
	m := NewMapping().Set("b", Number(1)).Set("a", Number(2)).Set("b", Number(3))

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("Keys() = %v, want [b a]", keys)
	}
	if v, _ := m.Get("b"); !v.Equal(Number(3)) {
		t.Errorf("Get(b) = %v, want 3", v)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestFromAny(t *testing.T) {
	got := FromAny(map[string]any{
		"z":    []any{1, "two", nil},
		"a":    true,
		"file": []byte("x"),
		"m":    map[string]string{"k": "v"},
	})
	want := Map(
		F("a", Bool(true)),
		F("file", BlobOf(Blob{Data: []byte("x")})),
		F("m", Map(F("k", Text("v")))),
		F("z", Seq(Number(1), Text("two"), Null())),
	)
	if !got.Equal(want) {
		t.Errorf("FromAny() kinds/order mismatch: got keys %v", got.Fields().Keys())
	}
}

func TestValue_Equal(t *testing.T) {
	a := Map(F("x", Number(1)), F("y", Number(2)))
	b := Map(F("y", Number(2)), F("x", Number(1)))
	if a.Equal(b) {
		t.Error("mappings with different order should not be equal")
	}
	if !Number(math.NaN()).Equal(Number(math.NaN())) {
		t.Error("NaN should equal NaN")
	}
	if Text("1").Equal(Number(1)) {
		t.Error("different kinds should not be equal")
	}
}

func TestValue_Depth(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want int
	}{
		{"scalar", Text("x"), 0},
		{"empty sequence", Seq(), 1},
		{"flat mapping", Map(F("a", Number(1))), 1},
		{"nested", Map(F("a", Seq(Map(F("b", Null()))))), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Depth(); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}
