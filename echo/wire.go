package echo

import (
	"encoding/json"
	"fmt"

	"github.com/rrruko/amaru-sim/world"
)

// wireMessage is the flat, tagged-union JSON shape Message travels over
// the wire as - plain encoding/json cannot unmarshal into an interface
// field without knowing which concrete type to build, so PipeCodec goes
// through this instead.
type wireMessage struct {
	Kind      string `json:"type"`
	MsgID     uint64 `json:"msg_id"`
	InReplyTo uint64 `json:"in_reply_to,omitempty"`
	Echo      string `json:"echo"`
}

func toWire(m Message) (wireMessage, error) {
	switch v := m.(type) {
	case Echo:
		return wireMessage{Kind: "echo", MsgID: v.MsgID, Echo: v.Body}, nil
	case EchoOk:
		return wireMessage{Kind: "echo_ok", MsgID: v.MsgID, InReplyTo: v.InReplyTo, Echo: v.Body}, nil
	default:
		return wireMessage{}, fmt.Errorf("echo: unknown message type %T", m)
	}
}

func fromWire(w wireMessage) (Message, error) {
	switch w.Kind {
	case "echo":
		return Echo{MsgID: w.MsgID, Body: w.Echo}, nil
	case "echo_ok":
		return EchoOk{MsgID: w.MsgID, InReplyTo: w.InReplyTo, Body: w.Echo}, nil
	default:
		return nil, fmt.Errorf("echo: unknown wire kind %q", w.Kind)
	}
}

// PipeCodec is the world.Codec for driving an external echo binary over
// newline-delimited JSON, standing in for world.JSONCodec which cannot
// handle Message's interface-typed Body on its own.
func PipeCodec() world.Codec[Message] {
	return world.Codec[Message]{
		Marshal: func(env world.Envelope[Message]) ([]byte, error) {
			wm, err := toWire(env.Body)
			if err != nil {
				return nil, err
			}
			return json.Marshal(struct {
				Src  string      `json:"src"`
				Dest string      `json:"dest"`
				Body wireMessage `json:"body"`
			}{Src: env.Src, Dest: env.Dest, Body: wm})
		},
		Unmarshal: func(data []byte) (world.Envelope[Message], error) {
			var raw struct {
				Src  string      `json:"src"`
				Dest string      `json:"dest"`
				Body wireMessage `json:"body"`
			}
			if err := json.Unmarshal(data, &raw); err != nil {
				return world.Envelope[Message]{}, err
			}
			body, err := fromWire(raw.Body)
			if err != nil {
				return world.Envelope[Message]{}, err
			}
			return world.Envelope[Message]{Src: raw.Src, Dest: raw.Dest, Body: body}, nil
		},
	}
}
