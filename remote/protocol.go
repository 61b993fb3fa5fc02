package remote

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request operations.
const (
	OpDie  = "die"
	OpRoll = "roll"
)

// Request is sent by the client, one per message.
type Request struct {
	Op string `json:"op"`
}

// Response answers one Request. Exactly one field is set.
type Response struct {
	Die   int    `json:"die,omitempty"`
	Dice  []int  `json:"dice,omitempty"`
	Error string `json:"error,omitempty"`
}
