package external

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractErrorDetail pulls a human readable message out of an error body.
// It understands FastAPI style {"detail": "..."} and {"detail": [{"msg": ...}]}
// bodies as well as {"error": "..."} and {"message": "..."}. It returns "" when
// nothing usable is found, including when the body is not JSON.
func ExtractErrorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		if msg := detailString(payload[key]); msg != "" {
			return msg
		}
	}
	return ""
}

func detailString(v interface{}) string {
	switch d := v.(type) {
	case string:
		return strings.TrimSpace(d)
	case []interface{}:
		var parts []string
		for _, item := range d {
			switch e := item.(type) {
			case string:
				parts = append(parts, e)
			case map[string]interface{}:
				if msg, ok := e["msg"].(string); ok && msg != "" {
					if loc := location(e["loc"]); loc != "" {
						msg = loc + ": " + msg
					}
					parts = append(parts, msg)
				}
			}
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		if msg, ok := d["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}

func location(v interface{}) string {
	items, ok := v.([]interface{})
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ".")
}
