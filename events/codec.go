package events

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ToJSON encodes an event with its type discriminator.
func ToJSON(evt Event) ([]byte, error) {
	if evt == nil {
		return nil, fmt.Errorf("event is nil")
	}
	return json.Marshal(evt)
}

// FromJSON decodes an event produced by ToJSON.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch typ := gjson.GetBytes(data, "type").String(); typ {
	case "request":
		return decode[Request](data)
	case "delim":
		return decode[Delim](data)
	case "chunk":
		return decode[Chunk](data)
	case "response":
		return decode[Response](data)
	case "error":
		return decode[Error](data)
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
}

func decode[T Event](data []byte) (Event, error) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return evt, nil
}
