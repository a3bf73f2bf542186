package models

// Envelope wraps every REST response body. Code mirrors the outcome: 200 for
// success, otherwise the HTTP error status.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}
