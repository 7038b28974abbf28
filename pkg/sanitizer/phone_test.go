package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"+47 912 34 567", "+4791234567"},
		{"91234567", "+4791234567"}, // bare Norwegian mobile
		{"+4791234567", "+4791234567"},
		{"not a number", ""},
	}

	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
