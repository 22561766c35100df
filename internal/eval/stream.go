package eval

import (
	"os"

	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/diag"
)

// Stream is a lazily consumed character source. Standard input is
// line-buffered so that the unread remainder of the last line can be
// discarded between top-level commands.
type Stream struct {
	table *StreamTable
	file  *os.File
	slot  int
	stdin bool
}

// StreamTable tracks open streams so any left open at the end of an
// evaluation can be closed.
type StreamTable struct {
	Restricted bool
	files      [config.MaxStreams]*os.File
	line       []byte
}

func NewStreamTable(restricted bool) *StreamTable {
	return &StreamTable{Restricted: restricted}
}

// Open opens a file as a character stream.
func (t *StreamTable) Open(name string) (*Stream, error) {
	if t.Restricted {
		return nil, diag.New(diag.Exec, "read function disabled")
	}
	slot := -1
	for i, f := range t.files {
		if f == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, diag.New(diag.Exec, "stream table full")
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, diag.New(diag.Exec, "'%s': can't read file", name)
	}
	t.files[slot] = f
	return &Stream{table: t, file: f, slot: slot}, nil
}

// Stdin returns the terminal input as a stream.
func (t *StreamTable) Stdin() *Stream {
	return &Stream{table: t, stdin: true}
}

// ReadChar returns the next character; ok is false at end of input.
func (s *Stream) ReadChar() (byte, bool, error) {
	if s.stdin {
		return s.table.readStdin()
	}
	var buf [1]byte
	n, err := s.file.Read(buf[:])
	if n == 0 || err != nil {
		s.close()
		return 0, false, nil
	}
	return buf[0], true, nil
}

// readStdin refills one line at a time with single-byte reads, so no
// input is buffered ahead of the command reader sharing the terminal.
func (t *StreamTable) readStdin() (byte, bool, error) {
	if len(t.line) == 0 {
		var buf [1]byte
		for {
			n, err := os.Stdin.Read(buf[:])
			if n == 0 {
				if len(t.line) == 0 {
					return 0, false, nil
				}
				break
			}
			t.line = append(t.line, buf[0])
			if buf[0] == '\n' || err != nil {
				break
			}
		}
	}
	b := t.line[0]
	t.line = t.line[1:]
	return b, true, nil
}

func (s *Stream) close() {
	if s.stdin || s.file == nil {
		return
	}
	s.file.Close()
	s.table.files[s.slot] = nil
	s.file = nil
}

// Reset discards buffered terminal input and forgets stale slots before
// a new evaluation.
func (t *StreamTable) Reset() {
	t.line = nil
	for i := range t.files {
		t.files[i] = nil
	}
}

// CloseAll closes every stream still open after an evaluation.
func (t *StreamTable) CloseAll() {
	for i, f := range t.files {
		if f != nil {
			f.Close()
			t.files[i] = nil
		}
	}
}
