package rest

import "encoding/json"

// envelope is the wire wrapper the gallery API uses for every response.
type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type incrementRequest struct {
	Delta int `json:"delta"`
}

type counterResponse struct {
	Count int `json:"count"`
}
