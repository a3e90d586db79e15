package models

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims carries the identity of a back-office operator. Tokens are
// issued by the external auth service; this service only verifies them.
type OperatorClaims struct {
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	OrgPath string `json:"orgPath"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the operator may perform mutating settlement
// operations (resettle, batch close, batch approval).
func (c *OperatorClaims) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "operator"
}
