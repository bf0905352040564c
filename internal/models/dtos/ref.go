package dtos

import (
	"bytes"
	"encoding/json"
)

// Ref is a reference to another backend document. The backend sends it either
// populated ({"_id": "...", "name": "..."}) or as the bare id string.
type Ref struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// IsZero reports whether the reference points nowhere.
func (r *Ref) IsZero() bool {
	return r == nil || r.ID == ""
}

// Is reports whether the reference points at id.
func (r *Ref) Is(id string) bool {
	return r != nil && id != "" && r.ID == id
}
