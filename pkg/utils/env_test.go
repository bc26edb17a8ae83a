package utils

import "testing"

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("VM_TEST_STR", "")
	ClearEnvCache("VM_TEST_STR")
	if got := EnvOrDefault("VM_TEST_STR", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("VM_TEST_STR", "value")
	ClearEnvCache("VM_TEST_STR")
	if got := EnvOrDefault("VM_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestEnvOrDefaultInt(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		fallback int
		want     int
	}{
		{"unset", "", 8, 8},
		{"valid", "42", 8, 42},
		{"invalid", "not-a-number", 8, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("VM_TEST_INT", tc.value)
			ClearEnvCache("VM_TEST_INT")
			if got := EnvOrDefaultInt("VM_TEST_INT", tc.fallback); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEnvOrDefaultUint64(t *testing.T) {
	t.Setenv("VM_TEST_U64", "18446744073709551615")
	ClearEnvCache("VM_TEST_U64")
	if got := EnvOrDefaultUint64("VM_TEST_U64", 1); got != 18446744073709551615 {
		t.Fatalf("got %d", got)
	}
}
