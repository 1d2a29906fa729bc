package peer

import (
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestFormatContent(t *testing.T) {
	packed, err := msgpack.Marshal("from msgpack")
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"json string", json.RawMessage(`"hi"`), "hi"},
		{"json object", json.RawMessage(`{"a": 1}`), `{"a":1}`},
		{"invalid json", json.RawMessage(`{oops`), `{oops`},
		{"msgpack string", msgpack.RawMessage(packed), "from msgpack"},
		{"plain value", 42, "42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatContent(tc.in); got != tc.want {
				t.Errorf("FormatContent = %q, want %q", got, tc.want)
			}
		})
	}
}
