package response

import (
	"encoding/json"
	"testing"
)

func TestOk(t *testing.T) {
	t.Parallel()

	res := Ok(map[string]int{"count": 3})
	if !res.Success {
		t.Error("Ok response not successful")
	}
	if res.StatusMessage != "Success" {
		t.Errorf("status message = %q", res.StatusMessage)
	}
	if res.Timestamp == "" {
		t.Error("missing timestamp")
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err = json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["data"]; !ok {
		t.Error("data field missing from payload")
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	res := Error("not found")
	if res.Success {
		t.Error("Error response marked successful")
	}
	if res.StatusMessage != "not found" {
		t.Errorf("status message = %q", res.StatusMessage)
	}

	// Empty data is omitted from the wire form.
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err = json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["data"]; ok {
		t.Error("data field present on error payload")
	}
}
