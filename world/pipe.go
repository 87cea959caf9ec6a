package world

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
)

// Codec tells a PipeNodeHandle how to turn an envelope into one line of
// wire format and back. JSONCodec covers any Msg that round-trips through
// encoding/json directly; a domain whose Msg is an interface (a tagged
// union with no concrete default) supplies its own.
type Codec[Msg any] struct {
	Marshal   func(Envelope[Msg]) ([]byte, error)
	Unmarshal func([]byte) (Envelope[Msg], error)
}

// JSONCodec is the default Codec, matching the original's plain
// serde_json framing. It only works when Msg unmarshals into a concrete
// type; an interface Msg needs a hand-written Codec instead.
func JSONCodec[Msg any]() Codec[Msg] {
	return Codec[Msg]{
		Marshal: func(env Envelope[Msg]) ([]byte, error) {
			return json.Marshal(env)
		},
		Unmarshal: func(data []byte) (Envelope[Msg], error) {
			var env Envelope[Msg]
			err := json.Unmarshal(data, &env)
			return env, err
		},
	}
}

// PipeNodeHandle adapts a child process speaking newline-delimited wire
// envelopes over its stdin/stdout into a NodeHandle, the Go rendition of
// the original's pipe_node_handle: one envelope out, one line in, one
// line back, one envelope in.
type PipeNodeHandle[Msg any] struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Scanner
	codec  Codec[Msg]
}

// NewPipeNodeHandle starts path with args and wires up its stdio. The
// child is expected to read one wire-encoded envelope per line and write
// exactly one back, in order.
func NewPipeNodeHandle[Msg any](path string, codec Codec[Msg], args ...string) (*PipeNodeHandle[Msg], error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe node handle: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe node handle: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("pipe node handle: start %s: %w", path, err)
	}
	return &PipeNodeHandle[Msg]{
		cmd:    cmd,
		stdin:  stdin,
		reader: bufio.NewScanner(stdout),
		codec:  codec,
	}, nil
}

// Handle encodes env as one line, writes it to the child's stdin, and
// decodes exactly one line back as the child's response.
//
// TODO: support a child that emits more than one envelope per input, by
// either requiring a termination token or switching to array framing; the
// original left the same limitation in its own pipe_node_handle.
func (p *PipeNodeHandle[Msg]) Handle(env Envelope[Msg]) ([]Envelope[Msg], error) {
	line, err := p.codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("pipe node handle: encode: %w", err)
	}
	if _, err := p.stdin.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("pipe node handle: write stdin: %w", err)
	}
	if !p.reader.Scan() {
		if err := p.reader.Err(); err != nil {
			return nil, fmt.Errorf("pipe node handle: read stdout: %w", err)
		}
		return nil, fmt.Errorf("pipe node handle: child closed stdout")
	}
	resp, err := p.codec.Unmarshal(p.reader.Bytes())
	if err != nil {
		return nil, fmt.Errorf("pipe node handle: decode: %w", err)
	}
	return []Envelope[Msg]{resp}, nil
}

// Close terminates the child process, matching the original's close
// callback killing it rather than waiting for a graceful exit - a test
// harness tearing down a world should never hang on a misbehaving SUT.
func (p *PipeNodeHandle[Msg]) Close() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
