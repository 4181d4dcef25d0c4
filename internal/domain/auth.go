package domain

import "encoding/json"

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// AuthResult merges the server response with the decoded identity.
type AuthResult struct {
	Response LoginResponse `json:"response"`
	Identity Identity      `json:"identity"`
}

// SignupResponse is the body returned by the signup endpoints. AccessToken
// is empty when the API does not sign the new account in.
type SignupResponse struct {
	AccessToken string     `json:"access_token,omitempty"`
	TokenType   string     `json:"token_type,omitempty"`
	ID          FlexibleID `json:"id,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// SignupResult carries the parsed and raw signup payloads. Identity is nil
// unless the response contained a token and a session was established.
type SignupResult struct {
	Response SignupResponse  `json:"response"`
	Raw      json.RawMessage `json:"raw"`
	Identity *Identity       `json:"identity,omitempty"`
}
