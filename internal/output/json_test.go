package output

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONFormatter_FormatReports(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatReports(&buf, testReports()); err != nil {
		t.Fatalf("FormatReports() error = %v", err)
	}

	var got []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0]["shard"] != "ds_0" || got[0]["status"] != "success" {
		t.Errorf("unexpected first item %v", got[0])
	}
	if _, ok := got[0]["error"]; ok {
		t.Error("successful unit should have no error field")
	}
	if got[1]["status"] != "failed" || got[1]["error"] != "Lock wait timeout exceeded" {
		t.Errorf("unexpected second item %v", got[1])
	}
	if got[1]["duration"] != "50ms" {
		t.Errorf("duration = %v, want 50ms", got[1]["duration"])
	}
}

func TestJSONFormatter_FormatRows(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatRows(&buf, testRowSets()); err != nil {
		t.Fatalf("FormatRows() error = %v", err)
	}

	var got []struct {
		Shard   string                   `json:"shard"`
		Columns []string                 `json:"columns"`
		Rows    []map[string]interface{} `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(got) != 2 || got[0].Shard != "ds_0" {
		t.Fatalf("unexpected sets %+v", got)
	}
	if len(got[0].Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(got[0].Rows))
	}

	// Byte slices print as text, not base64
	if got[0].Rows[0]["name"] != "alice" {
		t.Errorf("name = %v, want alice", got[0].Rows[0]["name"])
	}
	if got[0].Rows[1]["name"] != nil {
		t.Errorf("NULL should stay null, got %v", got[0].Rows[1]["name"])
	}
	if got[0].Rows[0]["user_id"] != float64(1) {
		t.Errorf("user_id = %v, want 1", got[0].Rows[0]["user_id"])
	}
}
