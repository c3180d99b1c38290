package gateway

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
)

// Request describes one outbound API call. Body is marshaled to JSON once
// and kept as bytes so the authorization retry can replay it.
type Request struct {
	Method  string
	Path    string // resolved against the client's base URL
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response is the decoded-enough result of a successful call
type Response struct {
	StatusCode int
	Body       []byte
}

// DecodeJSON unmarshals the response body into v
func (r *Response) DecodeJSON(v interface{}) error {
	if len(r.Body) == 0 {
		return errors.New("[Response.DecodeJSON] empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "[Response.DecodeJSON] unmarshal")
	}
	return nil
}

func marshalBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.([]byte); ok {
		return raw, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "[marshalBody] marshal")
	}
	return data, nil
}
