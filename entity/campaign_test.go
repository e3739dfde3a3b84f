package entity

import "testing"

func TestExtractInviteCode(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		url  string
		want string
	}{
		"plus form":          {"https://t.me/+AbCdEf123_-", "AbCdEf123_-"},
		"joinchat form":      {"https://t.me/joinchat/AbCdEf123", "AbCdEf123"},
		"trailing path":      {"https://t.me/some_public_chat", "some_public_chat"},
		"with whitespace":    {"  https://t.me/+XYZ  ", "XYZ"},
		"empty":              {"", ""},
		"bare joinchat":      {"https://t.me/joinchat/", ""},
		"plus in the middle": {"https://t.me/+code/extra", "extra"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := ExtractInviteCode(tc.url)
			if got != tc.want {
				t.Errorf("ExtractInviteCode(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
