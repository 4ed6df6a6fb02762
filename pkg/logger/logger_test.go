package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("loud", false); err == nil {
		t.Error("Expected unknown level to be rejected")
	}
}

func TestInitDebugOverridesLevel(t *testing.T) {
	defer Use(zap.NewNop())

	if err := Init("error", true); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !DebugEnabled {
		t.Error("Expected DebugEnabled after Init with debug")
	}
	if !base.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be enabled")
	}
}

func TestInitLogLevelDebugEnablesDebugf(t *testing.T) {
	defer Use(zap.NewNop())

	if err := Init("debug", false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !DebugEnabled {
		t.Error("Expected log_level debug to enable DebugEnabled")
	}

	if err := Init("info", false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if DebugEnabled {
		t.Error("Expected DebugEnabled to be off at info level")
	}
}

func TestDebugfFollowsLoggerLevel(t *testing.T) {
	defer Use(zap.NewNop())

	infoCore, infoLogs := observer.New(zapcore.InfoLevel)
	Use(zap.New(infoCore))
	Debugf("hidden %d", 1)
	Infof("wrote %s", "metrics.prom")
	Warnw("careful", "unit", "a.service")

	entries := infoLogs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries at info level, got %d", len(entries))
	}
	if entries[0].Message != "wrote metrics.prom" || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("Unexpected info entry: %+v", entries[0])
	}
	if entries[1].LoggerName != "sdsec" || entries[1].ContextMap()["unit"] != "a.service" {
		t.Errorf("Unexpected warning entry: %+v", entries[1])
	}

	debugCore, debugLogs := observer.New(zapcore.DebugLevel)
	Use(zap.New(debugCore))
	Debugf("shown %d", 2)
	if debugLogs.Len() != 1 || debugLogs.All()[0].Message != "shown 2" {
		t.Errorf("Expected debug entry, got %+v", debugLogs.All())
	}
}
