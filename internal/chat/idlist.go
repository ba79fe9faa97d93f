package chat

import "encoding/json"

// flexibleIDList decodes either ["id1","id2"] or the double-encoded
// "[\"id1\",\"id2\"]" the original web client sends for group creation.
type flexibleIDList []string

func (l *flexibleIDList) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*l = ids
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}
