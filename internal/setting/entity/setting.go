package entity

import "encoding/json"

// Setting represents a configuration or reserved data record.
type Setting struct {
	ID         string          `db:"id" json:"id"`
	ParentID   string          `db:"parent_id" json:"parent_id,omitempty"`
	RootID     string          `db:"root_id" json:"root_id,omitempty"`
	RecordMeta json.RawMessage `db:"record_meta" json:"record_meta,omitempty"`
	Category   string          `db:"category" json:"category,omitempty"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
}

// StringValue returns metadata.value when it is a JSON string.
func (s *Setting) StringValue() (string, bool) {
	if len(s.Metadata) == 0 {
		return "", false
	}
	var m struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(s.Metadata, &m); err != nil || m.Value == nil {
		return "", false
	}
	return *m.Value, true
}
