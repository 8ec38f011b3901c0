package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    EventKind
		amount  string
		wantErr bool
	}{
		{name: "bill", line: "BILL:100", kind: EventCash, amount: "100"},
		{name: "coin", line: "COIN:0.25", kind: EventCash, amount: "0.25"},
		{name: "trims whitespace", line: "  BILL:20\r", kind: EventCash, amount: "20"},
		{name: "ready", line: "READY", kind: EventReady},
		{name: "pong", line: "PONG", kind: EventPong},
		{name: "blank", line: "", kind: EventNone},
		{name: "comment", line: "# debug: motor ok", kind: EventNone},
		{name: "unknown token", line: "WAT:7", kind: EventNone},
		{name: "garbage amount", line: "BILL:abc", kind: EventNone, wantErr: true},
		{name: "zero amount", line: "COIN:0", kind: EventNone, wantErr: true},
		{name: "negative amount", line: "BILL:-5", kind: EventNone, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseLine(tc.line)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.kind, ev.Kind)
			if tc.amount != "" {
				require.Equal(t, tc.amount, ev.Amount.String())
			}
		})
	}
}

func TestPrintLineCmd(t *testing.T) {
	require.Equal(t, "PRINT:LINE:hello", PrintLineCmd("hello"))
	require.Equal(t, "PRINT:LINE:", PrintLineCmd(""))

	long := PrintLineCmd(strings.Repeat("x", 100))
	require.Len(t, long, maxCommandLen)
	require.True(t, strings.HasPrefix(long, "PRINT:LINE:"))
}
