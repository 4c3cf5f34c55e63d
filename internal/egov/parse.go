// File: internal/egov/parse.go
package egov

import (
	"encoding/json"
	"strings"
)

// ParseLoose decodes a raw provider body into a generic JSON value.
// The provider is known to return empty bodies and non-JSON error pages,
// so a body that is empty, whitespace-only, or not valid JSON yields
// (nil, false) instead of an error.
func ParseLoose(body []byte) (interface{}, bool) {
	if strings.TrimSpace(string(body)) == "" {
		return nil, false
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}
