package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildProtocolCoversEveryMessage(t *testing.T) {
	protocol := buildProtocol()
	if len(protocol.Client) != 10 || len(protocol.Server) != 13 {
		t.Fatalf("expected 10 client and 13 server schemas, got %d and %d", len(protocol.Client), len(protocol.Server))
	}
	if protocol.Server["gameEnd"] == nil || protocol.Server["gameEnd"].Title != "gameEnd" {
		t.Fatalf("missing gameEnd schema")
	}
}

func TestWriteSchemaReplacesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "protocol.json")
	if err := writeSchema(out, buildProtocol()); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(string(decoded["server"]), "killScores") {
		t.Fatalf("expected gameState fields in the schema")
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
