package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Connection degrees relative to the logged-in member
const (
	LevelDirect  = 1
	LevelMutual  = 2
	LevelDistant = 3
)

// PersonRecord is one person scraped from a search result or profile page
type PersonRecord struct {
	Name              string         `json:"name"`
	ProfileURL        string         `json:"profile_url"`
	Role              string         `json:"role"`
	Location          string         `json:"location"`
	ConnectionLevel   int            `json:"connection_level"`
	MutualConnections []PersonRecord `json:"mutual_connections"`
}

// Status is the lifecycle state of a job record
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Result field names a JobRecord may carry its people under
const (
	FieldPeople            = "people"
	FieldMutualConnections = "mutual_connections"
	FieldResults           = "results"
)

// JobRecord is the persisted state of one query. Params are echoed as
// top-level JSON keys next to the fixed fields.
type JobRecord struct {
	Status      Status
	Timestamp   time.Time
	Params      map[string]string
	ResultField string
	Results     []PersonRecord
	Error       string
	ErrorCode   string
}

var reservedKeys = map[string]bool{
	"status":               true,
	"timestamp":            true,
	"error":                true,
	"error_code":           true,
	FieldPeople:            true,
	FieldMutualConnections: true,
	FieldResults:           true,
}

// timestampLayouts are tried in order when reading records; the last two
// cover zone-less ISO-8601 timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// MarshalJSON flattens Params into the top-level object.
func (r JobRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Params)+4)
	for k, v := range r.Params {
		if reservedKeys[k] {
			continue
		}
		out[k] = v
	}
	out["status"] = r.Status
	out["timestamp"] = r.Timestamp.Format(time.RFC3339Nano)

	switch r.Status {
	case StatusComplete:
		field := r.ResultField
		if field == "" {
			field = FieldPeople
		}
		results := r.Results
		if results == nil {
			results = []PersonRecord{}
		}
		out[field] = normalize(results)
	case StatusError:
		out["error"] = r.Error
		if r.ErrorCode != "" {
			out["error_code"] = r.ErrorCode
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads a flattened record. Unknown string keys become Params.
func (r *JobRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = JobRecord{Params: make(map[string]string)}

	statusRaw, ok := raw["status"]
	if !ok {
		return fmt.Errorf("job record has no status")
	}
	var status string
	if err := json.Unmarshal(statusRaw, &status); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	r.Status = Status(status)
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	if tsRaw, ok := raw["timestamp"]; ok {
		var ts string
		if err := json.Unmarshal(tsRaw, &ts); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		parsed, err := ParseTimestamp(ts)
		if err != nil {
			return err
		}
		r.Timestamp = parsed
	}

	if errRaw, ok := raw["error"]; ok {
		if err := json.Unmarshal(errRaw, &r.Error); err != nil {
			return fmt.Errorf("invalid error field: %w", err)
		}
	}
	if codeRaw, ok := raw["error_code"]; ok {
		_ = json.Unmarshal(codeRaw, &r.ErrorCode)
	}

	for _, field := range []string{FieldPeople, FieldMutualConnections, FieldResults} {
		listRaw, ok := raw[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(listRaw, &r.Results); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
		r.ResultField = field
		break
	}

	for k, v := range raw {
		if reservedKeys[k] {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			r.Params[k] = s
		}
	}

	return nil
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusComplete, StatusError:
		return true
	}
	return false
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO-8601 timestamps.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ProcessingResponse is returned while a job is queued or running
type ProcessingResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// NewProcessingResponse builds the "check back later" body for a query.
func NewProcessingResponse(queryName, jobID string) ProcessingResponse {
	name := strings.ReplaceAll(queryName, "_", " ")
	if name == "" {
		name = "request"
	}
	return ProcessingResponse{
		Status:  StatusProcessing,
		Message: fmt.Sprintf("Your %s is processing. I'll let you know when it's done.", name),
		JobID:   jobID,
	}
}

// ParamKeys returns the record's parameter names in sorted order.
func (r *JobRecord) ParamKeys() []string {
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode renders the record the way it is stored on disk.
func (r *JobRecord) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalize replaces nil mutual lists so they encode as [] rather than null.
func normalize(people []PersonRecord) []PersonRecord {
	out := make([]PersonRecord, len(people))
	for i, p := range people {
		if p.MutualConnections == nil {
			p.MutualConnections = []PersonRecord{}
		} else {
			p.MutualConnections = normalize(p.MutualConnections)
		}
		out[i] = p
	}
	return out
}
