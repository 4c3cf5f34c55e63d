// File: internal/egov/citizen.go
package egov

// CitizenData is the decoded citizen profile returned by the deproc
// endpoint. It must only be constructed through ExtractCitizenData, which
// validates the untyped provider payload structurally.
type CitizenData struct {
	UserID            string  `json:"userId"`
	CitizenID         string  `json:"citizenId"`
	FirstName         string  `json:"firstName"`
	MiddleName        *string `json:"middleName,omitempty"`
	LastName          string  `json:"lastName"`
	DateOfBirthString string  `json:"dateOfBirthString"`
	Mobile            string  `json:"mobile"`
	Email             string  `json:"email"`
	Notification      bool    `json:"notification"`
}

// citizenFromValue performs the structural shape check on a decoded JSON
// value. The provider payload is not contractually guaranteed, so every
// mandatory field must be present with the right primitive type.
func citizenFromValue(raw interface{}) (*CitizenData, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}

	str := func(key string) (string, bool) {
		s, ok := m[key].(string)
		return s, ok
	}

	c := &CitizenData{}
	var fieldOK bool
	if c.UserID, fieldOK = str("userId"); !fieldOK {
		return nil, false
	}
	if c.CitizenID, fieldOK = str("citizenId"); !fieldOK {
		return nil, false
	}
	if c.FirstName, fieldOK = str("firstName"); !fieldOK {
		return nil, false
	}
	if c.LastName, fieldOK = str("lastName"); !fieldOK {
		return nil, false
	}
	if c.DateOfBirthString, fieldOK = str("dateOfBirthString"); !fieldOK {
		return nil, false
	}
	if c.Mobile, fieldOK = str("mobile"); !fieldOK {
		return nil, false
	}
	if c.Email, fieldOK = str("email"); !fieldOK {
		return nil, false
	}
	if c.Notification, fieldOK = m["notification"].(bool); !fieldOK {
		return nil, false
	}

	// middleName is the only optional field; null and absent are equivalent.
	if mid, ok := str("middleName"); ok {
		c.MiddleName = &mid
	}

	return c, true
}

// ExtractCitizenData normalizes the deproc payload into a CitizenData.
// The provider envelope drifts between responses: the citizen record may
// appear at the top level, nested under "result", or nested under "data".
// Returns nil when no arrangement matches.
func ExtractCitizenData(raw interface{}) *CitizenData {
	if c, ok := citizenFromValue(raw); ok {
		return c
	}

	if m, ok := raw.(map[string]interface{}); ok {
		if c, ok := citizenFromValue(m["result"]); ok {
			return c
		}
		if c, ok := citizenFromValue(m["data"]); ok {
			return c
		}
	}

	return nil
}
