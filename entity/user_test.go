package entity

import "testing"

func TestSetRegion(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"alpha2 code":   {"DE", "DE", false},
		"country name":  {"Germany", "DE", false},
		"empty clears":  {"", "", false},
		"unknown":       {"Atlantis", "", true},
		"trimmed input": {"  PL ", "PL", false},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var user User
			err := user.SetRegion(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SetRegion(%q): expected error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if user.Region != tc.want {
				t.Errorf("Region = %q, want %q", user.Region, tc.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	withUsername := User{TgId: 42, Username: "alice"}
	if got := withUsername.DisplayName(); got != "@alice (42)" {
		t.Errorf("DisplayName = %q", got)
	}
	bare := User{TgId: 42}
	if got := bare.DisplayName(); got != "42" {
		t.Errorf("DisplayName = %q", got)
	}
}
