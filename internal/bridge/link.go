package bridge

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Link is a line-oriented wrapper over the single serial connection the
// cash reader and the printer loop share. Reads are exclusive to the cash
// reader; writes are serialized by a mutex because receipt printing can
// interleave with PING diagnostics.
type Link struct {
	wmu  sync.Mutex
	rwc  io.ReadWriteCloser
	scan *bufio.Scanner
}

// OpenSerial connects to the microcontroller. The caller should wait a
// couple of seconds before the first command: opening the port resets the
// board.
func OpenSerial(portName string, baudRate int) (*Link, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return NewLink(port), nil
}

// NewLink wraps any line-delimited transport; tests pass an in-memory pipe.
func NewLink(rwc io.ReadWriteCloser) *Link {
	return &Link{
		rwc:  rwc,
		scan: bufio.NewScanner(rwc),
	}
}

// ReadLine blocks until one full line is available.
func (l *Link) ReadLine() (string, error) {
	if !l.scan.Scan() {
		if err := l.scan.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.scan.Text(), nil
}

// WriteCommand sends one command, newline-terminated.
func (l *Link) WriteCommand(cmd string) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	_, err := l.rwc.Write([]byte(cmd + "\n"))
	return err
}

func (l *Link) Close() error {
	return l.rwc.Close()
}
