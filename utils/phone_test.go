package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 202-555-0123", "12025550123"},
		{"(202) 555-0123", "12025550123"},
		{"202.555.0123", "12025550123"},
		{"+12025550123", "12025550123"},
		{"not a number 123", "123"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneLastTenDigitsStable(t *testing.T) {
	// Lookups compare the last ten digits, so every rendering of the same
	// number must end the same way.
	forms := []string{"+1 202-555-0123", "2025550123", "1-202-555-0123"}
	for _, f := range forms {
		got := NormalizePhone(f)
		if len(got) < 10 || got[len(got)-10:] != "2025550123" {
			t.Errorf("NormalizePhone(%q) = %q, want suffix 2025550123", f, got)
		}
	}
}
