// File: internal/dga/model.go
package dga

// LoginRequest is the primary-contract request body.
type LoginRequest struct {
	AppID  string `json:"appId" binding:"required"`
	MToken string `json:"mToken" binding:"required"`
}

// APISuccessResponse is the primary-contract success envelope.
type APISuccessResponse struct {
	OK    bool        `json:"ok"`
	Saved interface{} `json:"saved"`
}

// APIErrorResponse is the primary-contract failure envelope. Step lets the
// caller distinguish a provider rejection from a local database fault.
type APIErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Step  Step   `json:"step,omitempty"`
}

// legacyLoginRequest tolerates malformed bodies the way the older route
// did: missing or wrong-typed fields surface as "Missing Data", never as a
// binding error.
type legacyLoginRequest struct {
	AppID  string `json:"appId"`
	MToken string `json:"mToken"`
}

type legacyNotifyRequest struct {
	AppID   string `json:"appId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}
