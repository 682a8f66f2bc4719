package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrUnknownType marks an inbound message whose type is not recognised.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMissingField marks an inbound message lacking a required field.
	ErrMissingField = errors.New("missing required field")
	// ErrMalformed marks a frame that could not be decoded at all.
	ErrMalformed = errors.New("malformed message")
	// ErrUnsupportedCodec is returned for an unknown codec name.
	ErrUnsupportedCodec = errors.New("unsupported codec")
)

// Codec turns messages into websocket frames and back.
type Codec interface {
	Name() string
	// Binary reports whether frames must be sent as binary messages.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName resolves the ?codec= query parameter. Empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// msgpackCodec reuses the json struct tags so both codecs share field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// DecodeClientMessage decodes and validates one inbound frame.
func DecodeClientMessage(codec Codec, data []byte) (ClientMessage, error) {
	if codec == nil {
		codec = JSON
	}
	var msg ClientMessage
	if err := codec.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := msg.Validate(); err != nil {
		return msg, err
	}
	return msg, nil
}

// Validate checks the fields each message type requires.
func (m ClientMessage) Validate() error {
	switch m.Type {
	case TypeGuestLogin, TypeJoinMatchmaking, TypeQuickPlay, TypeCreateRoom, TypeLeaveGame:
		return nil
	case TypeRegister, TypeLogin:
		if m.Username == "" {
			return missing(m.Type, "username")
		}
		if m.Password == "" {
			return missing(m.Type, "password")
		}
	case TypeJoinRoom, TypeStartRoom:
		if m.RoomCode == "" {
			return missing(m.Type, "roomCode")
		}
	case TypeGameInput:
		if m.Input == nil {
			return missing(m.Type, "input")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return nil
}

func missing(typ, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingField, typ, field)
}
