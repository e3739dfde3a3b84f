package auth

import (
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testToken = "12345:test-token"

func signedInitData(t *testing.T, authDate time.Time) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", `{"id":42,"first_name":"Ann","username":"ann"}`)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAF9qz0aAAAAAH2rPRrW")
	hash := Sign(testToken, values)
	values.Set("hash", hash)
	return values.Encode()
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	initData := signedInitData(t, now.Add(-time.Hour))

	values, err := Validate(testToken, initData, now)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := values.Get("query_id"); got != "AAF9qz0aAAAAAH2rPRrW" {
		t.Errorf("query_id = %q", got)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Signed with another bot's token.
	wrong := url.Values{}
	wrong.Set("auth_date", strconv.FormatInt(now.Unix(), 10))
	wrong.Set("hash", Sign("999:other-token", wrong))

	tests := map[string]string{
		"tampered data": signedInitData(t, now.Add(-time.Hour)) + "x",
		"missing hash":  "user=%7B%22id%22%3A42%7D&auth_date=1",
		"stale data":    signedInitData(t, now.Add(-25*time.Hour)),
		"wrong token":   wrong.Encode(),
	}
	for name, initData := range tests {
		initData := initData
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Validate(testToken, initData, now); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("b", "2")
	values.Set("a", "1")
	first := Sign(testToken, values)
	if second := Sign(testToken, values); second != first {
		t.Errorf("Sign not deterministic: %s != %s", first, second)
	}
	values.Set("a", "changed")
	if changed := Sign(testToken, values); changed == first {
		t.Error("Sign ignored field change")
	}
}
