package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.5", 1.5, true},
		{"1,5", 1.5, true},
		{"100", 100, true},
		{" 2.50 ", 2.5, true},
		{"1 234,50 ₴", 1234.5, true},
		{"$99.99", 99.99, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"  -5", 0, false},
		{"-1,50", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"₴", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %v", tc.in, got)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "0"},
		{100, "100"},
		{1234.5, "1 234,5"},
		{1234567, "1 234 567"},
		{12.3441, "12,34"},
		{-40, "-40"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Errorf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
