package knol

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "  Taberu \r\n", expected: "taberu"},
		{input: "　食べる　", expected: "食べる"},
		{input: "line\r\nbreak", expected: "line\nbreak"},
	}
	for _, tc := range testCases {
		if got := Normalize(tc.input); got != tc.expected {
			t.Errorf("Expected normalized string to be '%s', but got '%s'", tc.expected, got)
		}
	}
}

func TestKey(t *testing.T) {
	t.Run("generates correct key", func(t *testing.T) {
		// sha256("q")
		expected := "8e35c2cd3bf6641bdb0e2050b76932cbb2e6034a0ddacc1d9bea82a6ba57f7cf"
		if got := Key("Q"); got != expected {
			t.Errorf("Expected key '%s', but got '%s'", expected, got)
		}
	})

	t.Run("key is deterministic", func(t *testing.T) {
		if Key("家族") != Key("家族") {
			t.Error("Expected keys for identical words to be the same")
		}
	})

	t.Run("normalization produces same key", func(t *testing.T) {
		if Key("  Sushi ") != Key("sushi") {
			t.Error("Expected keys to be the same after normalization, but they were different.")
		}
	})

	t.Run("different words have different keys", func(t *testing.T) {
		if Key("家") == Key("家族") {
			t.Error("Expected keys for different words to be different")
		}
	})
}
