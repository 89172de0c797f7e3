package bus

import (
	"context"
	"encoding/json"
)

// Type identifies a message kind on the relay.
type Type string

const (
	TypeGetSettings     Type = "GET_SETTINGS"
	TypeUpdateSettings  Type = "UPDATE_SETTINGS"
	TypeSettingsChanged Type = "SETTINGS_CHANGED"
	TypeFeatureToggle   Type = "FEATURE_TOGGLE"
)

// Request is a typed message sent across contexts. ID correlates the
// response and is assigned on send when empty.
type Request struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the counterpart's answer to a Request.
type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Handler processes one request and produces its response.
type Handler func(ctx context.Context, req Request) Response

// Bus is the request/response relay between the page context, the
// background coordinator and the settings UI. The core consumes this
// contract; it does not implement the relay itself.
//
// On registers exactly one handler per type; the last registration wins.
// Send delivers to the counterpart context and returns its response, or an
// error when the counterpart is unreachable.
type Bus interface {
	On(t Type, h Handler)
	Send(ctx context.Context, req Request) (Response, error)
}

// Fail builds a failure response for a request.
func Fail(req Request, msg string) Response {
	return Response{ID: req.ID, Success: false, Error: msg}
}

// OK builds a success response, marshaling data as the payload. A nil data
// yields an empty payload; a marshal failure downgrades to a failure
// response rather than dropping the reply.
func OK(req Request, data any) Response {
	resp := Response{ID: req.ID, Success: true}
	if data == nil {
		return resp
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Fail(req, "failed to encode response: "+err.Error())
	}
	resp.Data = raw
	return resp
}
