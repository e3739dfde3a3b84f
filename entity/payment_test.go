package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseStartPayload(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		payload string
		want    string
	}{
		"bare prefix defaults": {"BUY_PRO", "PRO_MONTH"},
		"explicit plan":        {"BUY_PRO_PRO_WEEK", "PRO_WEEK"},
		"year plan":            {"BUY_PRO_PRO_YEAR", "PRO_YEAR"},
		"unrelated payload":    {"ref_12345", ""},
		"empty":                {"", ""},
		"prefix without sep":   {"BUY_PROX", ""},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := ParseStartPayload(tc.payload)
			if got != tc.want {
				t.Errorf("ParseStartPayload(%q) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestInvoicePayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := InvoicePayload{TenantId: "9f3c1a", PlanCode: "PRO_MONTH"}
	parsed, err := ParseInvoicePayload(payload.String())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&payload, parsed); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvoicePayloadInvalid(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "noseparator", ":PRO_MONTH", "tenant:"} {
		if _, err := ParseInvoicePayload(payload); err == nil {
			t.Errorf("ParseInvoicePayload(%q): expected error", payload)
		}
	}
}
