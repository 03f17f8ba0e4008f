package events

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	DelimStart  = "start"
	DelimEnd    = "end"
	DelimCancel = "cancel"
)

var (
	requestJSON  = []byte(`{"type":"request"}`)
	delimJSON    = []byte(`{"type":"delim"}`)
	chunkJSON    = []byte(`{"type":"chunk"}`)
	responseJSON = []byte(`{"type":"response"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// Event is implemented by every lifecycle event.
type Event interface {
	event()
	ID() uuid.UUID
}

// Request is published when a send starts.
type Request struct {
	RequestID uuid.UUID       `json:"request_id"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Stream    bool            `json:"stream"`
	Messages  int             `json:"messages"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Request) event()            {}
func (r Request) ID() uuid.UUID { return r.RequestID }

// Delim marks a stream boundary: start, end or cancel.
type Delim struct {
	RequestID uuid.UUID `json:"request_id"`
	Delim     string    `json:"delim"`
}

func (Delim) event()            {}
func (d Delim) ID() uuid.UUID { return d.RequestID }

// Chunk is one streamed content increment.
type Chunk struct {
	RequestID uuid.UUID       `json:"request_id"`
	Delta     string          `json:"delta"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Chunk) event()            {}
func (c Chunk) ID() uuid.UUID { return c.RequestID }

// Response is the complete content of a finished send.
type Response struct {
	RequestID uuid.UUID       `json:"request_id"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Content   string          `json:"content"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Response) event()            {}
func (r Response) ID() uuid.UUID { return r.RequestID }

// Error is a failed send.
type Error struct {
	RequestID uuid.UUID       `json:"request_id"`
	Provider  string          `json:"provider"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) event()            {}
func (e Error) ID() uuid.UUID { return e.RequestID }

func (e Error) Error() string {
	return fmt.Sprintf("request_id: %s, provider: %s, timestamp: %s, error: %v", e.RequestID, e.Provider, e.Timestamp, e.Err)
}

func (e Error) Unwrap() error { return e.Err }

func (r Request) MarshalJSON() ([]byte, error) {
	result := requestJSON
	var err error
	if result, err = sjson.SetBytes(result, "request_id", r.RequestID.String()); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "provider", r.Provider); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "model", r.Model); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "stream", r.Stream); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "messages", r.Messages); err != nil {
		return nil, err
	}
	return setTimestamp(result, r.Timestamp)
}

func (r *Request) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "request"); err != nil {
		return err
	}
	if err := requestID(data, &r.RequestID); err != nil {
		return err
	}
	r.Provider = gjson.GetBytes(data, "provider").String()
	r.Model = gjson.GetBytes(data, "model").String()
	r.Stream = gjson.GetBytes(data, "stream").Bool()
	r.Messages = int(gjson.GetBytes(data, "messages").Int())
	return timestamp(data, &r.Timestamp)
}

func (d Delim) MarshalJSON() ([]byte, error) {
	result := delimJSON
	var err error
	if result, err = sjson.SetBytes(result, "request_id", d.RequestID.String()); err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "delim", d.Delim)
}

func (d *Delim) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "delim"); err != nil {
		return err
	}
	if err := requestID(data, &d.RequestID); err != nil {
		return err
	}
	delim := gjson.GetBytes(data, "delim")
	if !delim.Exists() {
		return fmt.Errorf("missing required field 'delim'")
	}
	d.Delim = delim.String()
	return nil
}

func (c Chunk) MarshalJSON() ([]byte, error) {
	result := chunkJSON
	var err error
	if result, err = sjson.SetBytes(result, "request_id", c.RequestID.String()); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "delta", c.Delta); err != nil {
		return nil, err
	}
	if result, err = setTimestamp(result, c.Timestamp); err != nil {
		return nil, err
	}
	return setMeta(result, c.Meta)
}

func (c *Chunk) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "chunk"); err != nil {
		return err
	}
	if err := requestID(data, &c.RequestID); err != nil {
		return err
	}
	delta := gjson.GetBytes(data, "delta")
	if !delta.Exists() {
		return fmt.Errorf("missing required field 'delta'")
	}
	c.Delta = delta.String()
	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		c.Meta = meta
	}
	return timestamp(data, &c.Timestamp)
}

func (r Response) MarshalJSON() ([]byte, error) {
	result := responseJSON
	var err error
	if result, err = sjson.SetBytes(result, "request_id", r.RequestID.String()); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "provider", r.Provider); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "model", r.Model); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "content", r.Content); err != nil {
		return nil, err
	}
	if result, err = setTimestamp(result, r.Timestamp); err != nil {
		return nil, err
	}
	return setMeta(result, r.Meta)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "response"); err != nil {
		return err
	}
	if err := requestID(data, &r.RequestID); err != nil {
		return err
	}
	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return fmt.Errorf("missing required field 'content'")
	}
	r.Content = content.String()
	r.Provider = gjson.GetBytes(data, "provider").String()
	r.Model = gjson.GetBytes(data, "model").String()
	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		r.Meta = meta
	}
	return timestamp(data, &r.Timestamp)
}

func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON
	var err error
	if result, err = sjson.SetBytes(result, "request_id", e.RequestID.String()); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "provider", e.Provider); err != nil {
		return nil, err
	}
	if e.Err != nil {
		if result, err = sjson.SetBytes(result, "error", e.Err.Error()); err != nil {
			return nil, err
		}
	}
	if result, err = setTimestamp(result, e.Timestamp); err != nil {
		return nil, err
	}
	return setMeta(result, e.Meta)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "error"); err != nil {
		return err
	}
	if err := requestID(data, &e.RequestID); err != nil {
		return err
	}
	e.Provider = gjson.GetBytes(data, "provider").String()
	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		e.Err = errors.New(msg.String())
	}
	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		e.Meta = meta
	}
	return timestamp(data, &e.Timestamp)
}

func checkType(data []byte, expected string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != expected {
		return fmt.Errorf("missing or invalid type, expected '%s'", expected)
	}
	return nil
}

func requestID(data []byte, dst *uuid.UUID) error {
	id := gjson.GetBytes(data, "request_id")
	if !id.Exists() {
		return fmt.Errorf("missing required field 'request_id'")
	}
	if err := dst.UnmarshalText([]byte(id.String())); err != nil {
		return fmt.Errorf("invalid request_id: %w", err)
	}
	return nil
}

func timestamp(data []byte, dst *strfmt.DateTime) error {
	if ts := gjson.GetBytes(data, "timestamp"); ts.Exists() {
		if err := dst.UnmarshalText([]byte(ts.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	return nil
}

func setTimestamp(result []byte, ts strfmt.DateTime) ([]byte, error) {
	if ts.IsZero() {
		return result, nil
	}
	return sjson.SetBytes(result, "timestamp", ts.String())
}

func setMeta(result []byte, meta gjson.Result) ([]byte, error) {
	if !meta.Exists() {
		return result, nil
	}
	return sjson.SetRawBytes(result, "meta", []byte(meta.Raw))
}
