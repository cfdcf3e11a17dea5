package rosters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"wbb_scrooper/models"
)

// ResolveNuxtPlayers reads a #__NUXT_DATA__ payload. The payload is a flat
// JSON array in which objects refer to their field values by slot index;
// player objects are the ones carrying firstName, lastName and
// rosterPlayerId.
func ResolveNuxtPlayers(payload string) ([]Record, error) {
	var slots []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &slots); err != nil {
		return nil, fmt.Errorf("decode nuxt payload: %w", err)
	}

	resolve := func(raw json.RawMessage) string {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return ""
		}
		n, ok := v.(float64)
		if !ok {
			return scalarString(v)
		}
		idx := int(n)
		if float64(idx) != n || idx < 0 || idx >= len(slots) {
			return scalarString(v)
		}
		var target any
		if err := json.Unmarshal(slots[idx], &target); err != nil {
			return ""
		}
		// 15 and 21 are shared sentinel slots, not real values.
		if f, ok := target.(float64); ok && (f == 15 || f == 21) {
			return ""
		}
		return scalarString(target)
	}

	var records []Record
	for _, slot := range slots {
		slot = bytes.TrimSpace(slot)
		if len(slot) == 0 || slot[0] != '{' {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(slot, &obj); err != nil {
			continue
		}
		if !truthy(obj["firstName"]) || !truthy(obj["lastName"]) || !truthy(obj["rosterPlayerId"]) {
			continue
		}

		field := func(keys ...string) string {
			for _, k := range keys {
				if raw, ok := obj[k]; ok {
					if v := resolve(raw); v != "" {
						return v
					}
				}
			}
			return ""
		}

		rec := Record{
			ID:             models.Scalar(field("rosterPlayerId")),
			Name:           trimJoin(field("firstName"), field("lastName")),
			Jersey:         models.Scalar(field("jerseyNumber")),
			Position:       field("positionShort", "positionLong"),
			Year:           field("academicYearLong", "academicYearShort"),
			Hometown:       field("hometown"),
			HighSchool:     field("highSchool"),
			PreviousSchool: field("previousSchool"),
			URL:            field("call_to_action"),
		}
		feet, inches := field("heightFeet"), field("heightInches")
		if feet != "" && inches != "" && inches != "0" {
			rec.Height = feet + "'" + inches + `"`
		}
		if len(rec.Name) > 2 {
			records = append(records, rec)
		}
	}
	return records, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// truthy mirrors a JavaScript truthiness check on a raw JSON value.
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func trimJoin(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
