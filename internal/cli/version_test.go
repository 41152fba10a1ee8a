package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "dev passes through", in: "dev", want: "dev"},
		{name: "empty passes through", in: "", want: ""},
		{name: "bare version gets v prefix", in: "1.2.3", want: "v1.2.3"},
		{name: "prefixed version unchanged", in: "v1.2.3", want: "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVersion(tt.in))
		})
	}
}

func TestSetVersionInfo(t *testing.T) {
	prevV, prevC, prevD := version, commit, date
	defer SetVersionInfo(prevV, prevC, prevD)

	SetVersionInfo("1.0.0", "abc123", "2026-08-25")
	assert.Equal(t, "1.0.0", GetVersion())
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2026-08-25", date)
}
