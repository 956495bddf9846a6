package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleID is a numeric id that also accepts a JSON string; browser forms
// post ids as strings.
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	var n uint
	if err := json.Unmarshal(data, &n); err == nil {
		*id = FlexibleID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id must be a number or numeric string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id must be a number or numeric string")
	}
	*id = FlexibleID(v)
	return nil
}
