package protocol

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Encoder writes newline-delimited JSON frames. Safe for concurrent Encode
// calls — the Sandbox's tool-call bridge may reply to several in-flight
// tool_calls from different goroutines.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes v followed by a newline, as one atomic write.
func (e *Encoder) Encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.w.Write(b)
	return err
}

// Decoder reads newline-delimited JSON frames. Not safe for concurrent
// Decode calls — the Sandbox reads frames from a single goroutine.
type Decoder struct {
	r *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Decoder{r: s}
}

// Decode reads the next line and unmarshals it into v. Returns io.EOF when
// the underlying reader is exhausted.
func (d *Decoder) Decode(v any) error {
	if !d.r.Scan() {
		if err := d.r.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	return json.Unmarshal(d.r.Bytes(), v)
}
