package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"hero-arena/server/internal/net/proto"
)

// Protocol groups one schema per message type.
type Protocol struct {
	Title  string                        `json:"title"`
	Client map[string]*jsonschema.Schema `json:"client"`
	Server map[string]*jsonschema.Schema `json:"server"`
}

var clientMessages = map[string]any{
	proto.TypeGuestLogin:      proto.ClientMessage{},
	proto.TypeRegister:        proto.ClientMessage{},
	proto.TypeLogin:           proto.ClientMessage{},
	proto.TypeJoinMatchmaking: proto.ClientMessage{},
	proto.TypeQuickPlay:       proto.ClientMessage{},
	proto.TypeCreateRoom:      proto.ClientMessage{},
	proto.TypeJoinRoom:        proto.ClientMessage{},
	proto.TypeStartRoom:       proto.ClientMessage{},
	proto.TypeGameInput:       proto.ClientMessage{},
	proto.TypeLeaveGame:       proto.ClientMessage{},
}

var serverMessages = map[string]any{
	proto.TypeConnected:         proto.Connected{},
	proto.TypeLoginResult:       proto.AuthResult{},
	proto.TypeRegisterResult:    proto.AuthResult{},
	proto.TypeMatchmakingStatus: proto.MatchmakingStatus{},
	proto.TypeMatchFound:        proto.MatchFound{},
	proto.TypeRoomCreated:       proto.RoomCreated{},
	proto.TypeRoomJoined:        proto.RoomJoined{},
	proto.TypeRoomError:         proto.RoomError{},
	proto.TypeRoomUpdate:        proto.RoomUpdate{},
	proto.TypeGameState:         proto.GameState{},
	proto.TypeKill:              proto.Kill{},
	proto.TypeGameEnd:           proto.GameEnd{},
	proto.TypeLeftGame:          proto.LeftGame{},
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildProtocol()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildProtocol() Protocol {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: true}
	reflect := func(messages map[string]any) map[string]*jsonschema.Schema {
		out := make(map[string]*jsonschema.Schema, len(messages))
		for typ, msg := range messages {
			schema := reflector.Reflect(msg)
			schema.Title = typ
			out[typ] = schema
		}
		return out
	}
	return Protocol{
		Title:  "Hero Arena websocket protocol",
		Client: reflect(clientMessages),
		Server: reflect(serverMessages),
	}
}

func writeSchema(outPath string, protocol Protocol) error {
	data, err := json.MarshalIndent(protocol, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
