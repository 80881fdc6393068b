package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRecoverPanicSwallowsPanic(t *testing.T) {
	logger := New(Config{Level: "info", Format: "json"}, 0, "127.0.0.1:9001")

	func() {
		defer RecoverPanic(logger, "test", map[string]any{"address": 7})
		panic("boom")
	}()
	// reaching here means the panic did not escape
}

func TestNewDefaultsToInfo(t *testing.T) {
	New(Config{Level: "bogus", Format: "json"}, 1, "127.0.0.1:9002")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Fatalf("global level = %s, want %s", got, zerolog.InfoLevel)
	}
}
