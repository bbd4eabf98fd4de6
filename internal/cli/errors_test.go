package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintError(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: cause, want: "Error: disk full\n"},
		{
			name: "preflight",
			err: &PreflightError{
				Message:  "cannot open library database",
				Hint:     "Check --db",
				NextStep: "shelf config show",
				Err:      cause,
			},
			want: "Error: cannot open library database\nHint: Check --db\nTry: shelf config show\n",
		},
		{
			name: "wrapped preflight without hints",
			err:  fmt.Errorf("add: %w", &PreflightError{Message: "not an image", Hint: "  "}),
			want: "Error: not an image\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			require.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPreflightErrorUnwrap(t *testing.T) {
	cause := errors.New("locked")
	err := &PreflightError{Message: "busy", Err: cause}
	require.ErrorIs(t, err, cause)
	require.EqualError(t, err, "busy")
}
