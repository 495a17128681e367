package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// OTPRecord is one outstanding deletion code.
// CodeHash is a keyed digest of the 6-digit code; the plaintext only travels in the email.
// The record binds to Email alone, not to an authenticated caller. Anyone who can submit the
// email string and the code passes verification; see OTP_BIND_TOKEN_EMAIL for the opt-in check.
type OTPRecord struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Live reports whether the record can still be matched at now.
func (r *OTPRecord) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// IssueRequest is the body of POST /otp/issue.
type IssueRequest struct {
	Email    string `json:"email"`
	Action   string `json:"action"`
	ItemType string `json:"itemType"`
	ItemName string `json:"itemName"`
}

// DeletionRequest is the body of POST /otp/verify-and-delete. It lives for one call only.
type DeletionRequest struct {
	OTP      string `json:"otp" validate:"required"`
	Email    string `json:"email" validate:"required"`
	ItemType string `json:"itemType" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
}

// UnmarshalJSON accepts itemId as a JSON string or number; backend ids are
// usually numeric.
func (r *DeletionRequest) UnmarshalJSON(b []byte) error {
	type plain DeletionRequest
	var aux struct {
		plain
		ItemID json.RawMessage `json:"itemId"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = DeletionRequest(aux.plain)
	r.ItemID = ""

	raw := bytes.TrimSpace(aux.ItemID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &r.ItemID)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return errors.New("itemId must be a string or a number")
	}
	r.ItemID = n.String()
	return nil
}
