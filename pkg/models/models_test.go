package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJobRecord_MarshalFlattensParams(t *testing.T) {
	rec := JobRecord{
		Status:    StatusComplete,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Params: map[string]string{
			"query_name": "company_people_search",
			"company":    "Acme",
			"status":     "ignored",
		},
		ResultField: FieldPeople,
		Results:     []PersonRecord{{Name: "Jane Roe", ConnectionLevel: LevelDirect}},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}

	if out["company"] != "Acme" || out["query_name"] != "company_people_search" {
		t.Errorf("Expected params at top level, got %v", out)
	}
	if out["status"] != "complete" {
		t.Errorf("A param must not replace status, got %v", out["status"])
	}
	if out["timestamp"] != "2025-03-01T12:00:00Z" {
		t.Errorf("Unexpected timestamp %v", out["timestamp"])
	}
	if _, ok := out["error"]; ok {
		t.Error("Complete record should not carry an error")
	}

	people, ok := out["people"].([]interface{})
	if !ok || len(people) != 1 {
		t.Fatalf("Expected one person, got %v", out["people"])
	}
	person := people[0].(map[string]interface{})
	if mutuals, ok := person["mutual_connections"].([]interface{}); !ok || len(mutuals) != 0 {
		t.Errorf("Expected empty mutual list, got %v", person["mutual_connections"])
	}
}

func TestJobRecord_MarshalEmptyResults(t *testing.T) {
	rec := JobRecord{Status: StatusComplete, ResultField: FieldMutualConnections}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"mutual_connections":[]`) {
		t.Errorf("Expected an empty list, got %s", data)
	}
}

func TestJobRecord_MarshalError(t *testing.T) {
	rec := JobRecord{
		Status:    StatusError,
		Params:    map[string]string{"query_name": "role_search"},
		Error:     "no people found with role PM at Acme",
		ErrorCode: "NOT_FOUND",
		Results:   []PersonRecord{{Name: "dropped"}},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	json.Unmarshal(data, &out)

	if out["error"] != rec.Error || out["error_code"] != "NOT_FOUND" {
		t.Errorf("Unexpected error fields %v", out)
	}
	if _, ok := out["people"]; ok {
		t.Error("Error record should not carry results")
	}
}

func TestJobRecord_UnmarshalZonelessTimestamp(t *testing.T) {
	data := []byte(`{
		"status": "processing",
		"timestamp": "2025-03-01T12:30:45.123456",
		"query_name": "role_search",
		"role": "PM",
		"company": "Acme"
	}`)

	var rec JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := time.Date(2025, 3, 1, 12, 30, 45, 123456000, time.Local)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, rec.Timestamp)
	}
	if rec.Status != StatusProcessing {
		t.Errorf("Expected processing, got %s", rec.Status)
	}
	if len(rec.Params) != 3 || rec.Params["role"] != "PM" {
		t.Errorf("Unexpected params %v", rec.Params)
	}
}

func TestJobRecord_UnmarshalMutualField(t *testing.T) {
	data := []byte(`{
		"status": "complete",
		"timestamp": "2025-03-01T12:00:00Z",
		"person": "Jane Roe",
		"mutual_connections": [{"name": "Mia One", "profile_url": "https://www.linkedin.com/in/mia", "connection_level": 1}]
	}`)

	var rec JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ResultField != FieldMutualConnections {
		t.Errorf("Expected mutual_connections field, got %q", rec.ResultField)
	}
	if len(rec.Results) != 1 || rec.Results[0].Name != "Mia One" {
		t.Errorf("Unexpected results %+v", rec.Results)
	}
	if _, ok := rec.Params["mutual_connections"]; ok {
		t.Error("Result field should not become a param")
	}
}

func TestJobRecord_UnmarshalErrorCode(t *testing.T) {
	data := []byte(`{"status": "error", "timestamp": "2025-03-01T12:00:00", "error": "boom", "error_code": "STALE"}`)

	var rec JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Error != "boom" || rec.ErrorCode != "STALE" {
		t.Errorf("Unexpected error fields %+v", rec)
	}
}

func TestJobRecord_UnmarshalRejectsBadStatus(t *testing.T) {
	for _, data := range []string{
		`{"timestamp": "2025-03-01T12:00:00Z"}`,
		`{"status": "done"}`,
		`{"status": "complete", "timestamp": "yesterday"}`,
		`[1, 2]`,
	} {
		var rec JobRecord
		if err := json.Unmarshal([]byte(data), &rec); err == nil {
			t.Errorf("Expected %s to be rejected", data)
		}
	}
}

func TestJobRecord_EncodeRoundTrip(t *testing.T) {
	rec := &JobRecord{
		Status:      StatusComplete,
		Timestamp:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Params:      map[string]string{"query_name": "connections_through_person", "company_name": "Globex"},
		ResultField: FieldPeople,
		Results: []PersonRecord{{
			Name:              "Sam Two",
			ConnectionLevel:   LevelMutual,
			MutualConnections: []PersonRecord{{Name: "Mia One"}},
		}},
	}

	data, err := rec.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"company_name\"") {
		t.Errorf("Expected indented output, got %s", data)
	}

	var got JobRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Timestamp.Equal(rec.Timestamp) || got.Params["company_name"] != "Globex" {
		t.Errorf("Round trip lost fields: %+v", got)
	}
	if len(got.Results) != 1 || len(got.Results[0].MutualConnections) != 1 {
		t.Errorf("Round trip lost people: %+v", got.Results)
	}
}

func TestNewProcessingResponse(t *testing.T) {
	resp := NewProcessingResponse("role_search", "cache/role_search_pm_acme.json")
	if resp.Status != StatusProcessing || resp.JobID != "cache/role_search_pm_acme.json" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if !strings.Contains(resp.Message, "role search") {
		t.Errorf("Expected readable query name, got %q", resp.Message)
	}
}

func TestParamKeys_Sorted(t *testing.T) {
	rec := &JobRecord{Params: map[string]string{"role": "PM", "company": "Acme", "query_name": "role_search"}}
	got := strings.Join(rec.ParamKeys(), ",")
	if got != "company,query_name,role" {
		t.Errorf("Unexpected order %s", got)
	}
}
