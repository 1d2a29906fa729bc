package peer

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatContent renders relayed content for a terminal. Strings are
// shown bare, anything else as compact JSON.
func FormatContent(content any) string {
	var v any
	switch c := content.(type) {
	case nil:
		return ""
	case json.RawMessage:
		if err := json.Unmarshal(c, &v); err != nil {
			return string(c)
		}
	case msgpack.RawMessage:
		if err := msgpack.Unmarshal(c, &v); err != nil {
			return fmt.Sprintf("%x", []byte(c))
		}
	default:
		v = c
	}

	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
