package bridge

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// The acceptor/printer microcontroller speaks newline-delimited tokens:
// "BILL:100" / "COIN:5" for cash detected, "READY" on startup, "PONG" in
// answer to a PING, "#"-prefixed debug chatter, and a print sub-protocol
// (PRINT:START / PRINT:LINE:<text> / PRINT:END) going the other way.

type EventKind int

const (
	EventNone EventKind = iota // blank lines, comments, unknown tokens
	EventCash
	EventReady
	EventPong
)

type Event struct {
	Kind   EventKind
	Amount decimal.Decimal // set for EventCash
	Raw    string
}

// ParseLine classifies one line read from the serial link. Unknown tokens
// map to EventNone rather than an error: firmware versions drift and the
// reader must not die on chatter it does not understand.
func ParseLine(raw string) (Event, error) {
	line := strings.TrimSpace(raw)
	ev := Event{Kind: EventNone, Raw: line}

	switch {
	case line == "":
		return ev, nil
	case strings.HasPrefix(line, "#"):
		return ev, nil
	case line == "READY":
		ev.Kind = EventReady
		return ev, nil
	case line == "PONG":
		ev.Kind = EventPong
		return ev, nil
	case strings.HasPrefix(line, "BILL:"), strings.HasPrefix(line, "COIN:"):
		amount, err := decimal.NewFromString(line[strings.Index(line, ":")+1:])
		if err != nil {
			return ev, fmt.Errorf("bad cash amount in %q: %w", line, err)
		}
		if !amount.IsPositive() {
			return ev, fmt.Errorf("non-positive cash amount in %q", line)
		}
		ev.Kind = EventCash
		ev.Amount = amount
		return ev, nil
	default:
		return ev, nil
	}
}

// Commands going down the link.
const (
	CmdPing = "PING"

	CmdPrintStart = "PRINT:START"
	CmdPrintEnd   = "PRINT:END"
	cmdLinePrefix = "PRINT:LINE:"

	// The microcontroller's serial buffer is 64 bytes; anything longer than
	// this gets truncated rather than risking an overflow mid-receipt.
	maxCommandLen = 50
)

// PrintLineCmd builds the command for one receipt line, truncated to the
// safe command length.
func PrintLineCmd(text string) string {
	cmd := cmdLinePrefix + text
	if len(cmd) > maxCommandLen {
		cmd = cmd[:maxCommandLen]
	}
	return cmd
}
