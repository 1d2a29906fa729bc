package ui

import (
	"strings"
	"testing"
)

func TestRelaySummaryView(t *testing.T) {
	view := RelaySummaryView(RelaySummary{
		URL:         "http://localhost:10000",
		Status:      "ok",
		ActiveRooms: 7,
		Latency:     "2ms",
	})

	for _, want := range []string{"http://localhost:10000", "ok", "Active Rooms", "7", "2ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestJoinedView(t *testing.T) {
	view := JoinedView("ABCD")
	for _, want := range []string{IconRoom, "ABCD", "waiting for a peer"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q: %s", want, view)
		}
	}
}
