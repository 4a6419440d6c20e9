package digest

import "testing"

func TestHexKnownVectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"hello", "5d41402abc4b2a76b9719d911017c592"},
		{"test1", "5a105e8b9d40e1329780d62ea2265d8a"},
	}

	for _, c := range cases {
		if got := HexString(c.in); got != c.want {
			t.Errorf("HexString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHexDeterministic(t *testing.T) {
	in := []byte("repeat-me")
	first := Hex(in)
	for i := 0; i < 100; i++ {
		if got := Hex(in); got != first {
			t.Fatalf("Hex not deterministic: %q vs %q", got, first)
		}
	}
}

func TestHexLength(t *testing.T) {
	if got := len(HexString("anything")); got != 32 {
		t.Fatalf("digest length = %d, want 32", got)
	}
}
