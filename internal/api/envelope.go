package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

// EnvelopeVersion is bumped when the envelope shape changes incompatibly.
const EnvelopeVersion = 1

// Envelope wraps every JSON response body.
// Successful responses carry Data; failures carry Error plus a machine-readable Code.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in an Envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if env, ok := v.(Envelope); ok {
		return env, nil
	}

	switch e := v.(type) {
	case *APIError:
		return errorEnvelope(e.Code, e.Message, e.Details), nil
	case *domainerrors.Error:
		msg := e.Message
		if e.Code == domainerrors.CodeInternal {
			msg = msgInternal
		}
		return errorEnvelope(string(e.Code), msg, e.Details), nil
	}

	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}
	if code >= 400 {
		if e, ok := v.(error); ok {
			return errorEnvelope(statusToCode(code), e.Error(), nil), nil
		}
	}

	return Envelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}

func errorEnvelope(code, message string, details any) Envelope {
	return Envelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
}
