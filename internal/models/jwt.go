package models

// JWTClaims represents the claims carried by an access token
type JWTClaims struct {
	Sub   string `json:"sub"`   // user ID
	Email string `json:"email"` // user email
	Name  string `json:"name"`  // nickname
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
	Iss   string `json:"iss"`
}
