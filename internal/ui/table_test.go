package ui

import (
	"testing"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
	"github.com/stretchr/testify/assert"
)

func TestRenderSimpleTable_Empty(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "A", Width: 4}}, nil))
}

func TestRenderFleetTable(t *testing.T) {
	out := RenderFleetTable(map[string]fleet.Outcome{
		"fw-b": {
			Firewall: "fw-b",
			Hostname: "fw-b",
			Err:      errors.New(errors.ErrTimeout, "Request timed out", ""),
			Attempts: 3,
			Duration: 90 * time.Second,
		},
		"fw-a": {
			Firewall: "fw-a",
			Hostname: "fw-lab-01",
			Success:  true,
			Attempts: 1,
			Duration: 1200 * time.Millisecond,
		},
	})

	assert.Contains(t, out, "FIREWALL")
	assert.Contains(t, out, "fw-lab-01")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "TIMEOUT")

	// Sorted output: fw-a before fw-b.
	assert.Less(t, indexOf(out, "fw-a"), indexOf(out, "fw-b"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long stri…", truncate("long string here", 10))
}
