package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
)

// CommonResponse is the envelope the files gateway wraps its JSON payloads in.
type CommonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *model.Error `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, body CommonResponse) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

func FromDTO(w http.ResponseWriter, status int, data any) error {
	return write(w, status, CommonResponse{Data: data})
}

func FromMessage(w http.ResponseWriter, status int, message string) error {
	return write(w, status, CommonResponse{Data: map[string]string{"message": message}})
}

func FromError(w http.ResponseWriter, status int, err error) error {
	var coded model.Error
	if !errors.As(err, &coded) {
		coded = model.NewError("internal", err.Error())
	}
	return write(w, status, CommonResponse{Error: &coded})
}

var numberAPI = sonic.Config{UseNumber: true}.Froze()

// Envelope is a decoded gateway JSON body. Payload fields are either nested
// under "data" or placed at the top level.
type Envelope map[string]any

// Decode parses body as an Envelope. An empty body or a JSON null yields a nil
// Envelope and no error.
func Decode(body []byte) (Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	var env Envelope
	if err := numberAPI.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return env, nil
}

// Field resolves name from the envelope. When "data" holds an object the
// lookup is made there only; otherwise the top-level field is used.
func (e Envelope) Field(name string) (any, bool) {
	if e == nil {
		return nil, false
	}
	if data, ok := e["data"].(map[string]any); ok {
		v, ok := data[name]
		return v, ok && v != nil
	}
	v, ok := e[name]
	return v, ok && v != nil
}

func (e Envelope) String(name string) (string, bool) {
	v, ok := e.Field(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (e Envelope) Int64(name string) (int64, bool) {
	v, ok := e.Field(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
