// Package sse decodes OpenAI-style server-sent event streams into text deltas.
//
// The framing is line based: every "data: {json}" line carries one chunk, the literal
// "data: [DONE]" ends the stream and anything else (comments, keep-alives, event names)
// is ignored. Bytes are buffered until a newline arrives, so chunks may be split
// anywhere, including inside a multi-byte character.
package sse

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/tidwall/gjson"
)

const (
	readSize = 4096

	// DeltaPath is the gjson path of the incremental text in a chat completion chunk.
	DeltaPath = "choices.0.delta.content"
)

var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

// Decoder is the incremental parser for one stream. It is not safe for concurrent use
// and must not be reused across streams.
type Decoder struct {
	buf     []byte
	done    bool
	skipped int
	onDelta func(string)
}

// NewDecoder creates a decoder that calls onDelta for every non-empty text delta.
func NewDecoder(onDelta func(string)) *Decoder {
	return &Decoder{onDelta: onDelta}
}

// Write feeds the next chunk of the stream and processes every complete line in the
// buffer. It reports whether the [DONE] sentinel has been seen; once it has, further
// input is ignored.
func (d *Decoder) Write(chunk []byte) bool {
	if d.done {
		return true
	}
	d.buf = append(d.buf, chunk...)

	for !d.done {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		d.line(line)
	}
	if d.done {
		d.buf = nil
	}
	return d.done
}

// Flush processes a trailing line that was not terminated by a newline. Call it once the
// underlying reader is exhausted.
func (d *Decoder) Flush() bool {
	if !d.done && len(d.buf) > 0 {
		line := d.buf
		d.buf = nil
		d.line(line)
	}
	return d.done
}

// Done reports whether the [DONE] sentinel was seen.
func (d *Decoder) Done() bool {
	return d.done
}

// Skipped returns how many data lines were dropped because they were not valid JSON.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Buffered returns the number of bytes waiting for a newline.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) line(line []byte) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if bytes.Equal(payload, doneMarker) {
		d.done = true
		return
	}
	if !gjson.ValidBytes(payload) {
		d.skipped++
		return
	}
	delta := gjson.GetBytes(payload, DeltaPath)
	if delta.Type != gjson.String || delta.Str == "" {
		return
	}
	if d.onDelta != nil {
		d.onDelta(delta.Str)
	}
}

// Decode reads r until the [DONE] sentinel, EOF or cancellation, forwarding deltas to
// onDelta. Reaching EOF without a sentinel is a normal end of stream. At EOF a final
// data line that lacks its terminating newline is still decoded, so a server that closes
// the connection right after its last chunk loses nothing. Once ctx is cancelled no
// further delta is delivered and ctx.Err() is returned.
func Decode(ctx context.Context, r io.Reader, onDelta func(string)) error {
	dec := NewDecoder(func(delta string) {
		if ctx.Err() == nil {
			onDelta(delta)
		}
	})

	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 && dec.Write(buf[:n]) {
			return ctx.Err()
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if errors.Is(err, io.EOF) {
				dec.Flush()
				return nil
			}
			return err
		}
	}
}
