package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCrashHandler_SetContext(t *testing.T) {
	globalContext = &crashContext{}

	SetBasePath("/tmp/test-taskloop")
	SetVersion("1.0.0-test")
	SetCommand("chat")
	SetLastMessage("s1", "plan a sprint")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if globalContext.basePath != "/tmp/test-taskloop" {
		t.Errorf("basePath = %q", globalContext.basePath)
	}
	if globalContext.version != "1.0.0-test" {
		t.Errorf("version = %q", globalContext.version)
	}
	if globalContext.command != "chat" {
		t.Errorf("command = %q", globalContext.command)
	}
	if globalContext.sessionID != "s1" || globalContext.lastMessage != "plan a sprint" {
		t.Errorf("last message = %q/%q", globalContext.sessionID, globalContext.lastMessage)
	}
}

func TestCrashHandler_SetLastMessage_Truncation(t *testing.T) {
	globalContext = &crashContext{}

	SetLastMessage("s1", strings.Repeat("a", 3000))

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if len(globalContext.lastMessage) > 600 {
		t.Errorf("expected truncation, got length %d", len(globalContext.lastMessage))
	}
	if !strings.Contains(globalContext.lastMessage, "[truncated]") {
		t.Error("expected truncated message to contain '[truncated]'")
	}
}

func TestCrashHandler_CreateCrashLog(t *testing.T) {
	globalContext = &crashContext{
		version:     "1.0.0",
		command:     "chat",
		lastMessage: "user input",
	}

	log := createCrashLog("test panic")

	if log.PanicValue != "test panic" {
		t.Errorf("PanicValue = %q", log.PanicValue)
	}
	if log.Version != "1.0.0" || log.Command != "chat" || log.LastMessage != "user input" {
		t.Errorf("log = %+v", log)
	}
	if log.StackTrace == "" {
		t.Error("expected non-empty StackTrace")
	}
	if log.GoVersion == "" {
		t.Error("expected non-empty GoVersion")
	}
}

func TestCrashHandler_FormatCrashLog(t *testing.T) {
	log := CrashLog{
		Timestamp:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Version:     "1.0.0",
		Command:     "chat",
		PanicValue:  "test panic",
		StackTrace:  "goroutine 1 [running]:\nmain.main()",
		SessionID:   "s1",
		LastMessage: "user input",
		GoVersion:   "go1.24.3",
		OS:          "darwin",
		Arch:        "arm64",
	}

	formatted := formatCrashLog(log)

	for _, expected := range []string{
		"TASKLOOP CRASH LOG",
		"Timestamp: 2025-01-01T12:00:00Z",
		"Version:   1.0.0",
		"Command:   chat",
		"Go:        go1.24.3",
		"OS/Arch:   darwin/arm64",
		"PANIC VALUE",
		"test panic",
		"STACK TRACE",
		"goroutine 1 [running]",
		"LAST USER MESSAGE",
		"user input",
	} {
		if !strings.Contains(formatted, expected) {
			t.Errorf("expected formatted log to contain %q", expected)
		}
	}
}

func TestCrashHandler_WriteCrashLog(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), ".taskloop")
	globalContext = &crashContext{basePath: basePath}

	log := CrashLog{
		Timestamp:  time.Now(),
		PanicValue: "test panic",
		StackTrace: "test stack",
	}
	if err := writeCrashLog(log); err != nil {
		t.Fatalf("writeCrashLog: %v", err)
	}

	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d crash logs, want 1", len(logs))
	}
	content, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatalf("read crash log: %v", err)
	}
	if !strings.Contains(string(content), "test panic") {
		t.Error("expected crash log to contain the panic value")
	}
}

func TestCrashHandler_CleanOldLogs(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), ".taskloop")
	crashDir := filepath.Join(basePath, CrashLogDir)
	if err := os.MkdirAll(crashDir, 0o755); err != nil {
		t.Fatal(err)
	}
	globalContext = &crashContext{basePath: basePath}

	for i := range MaxCrashLogs + 5 {
		name := filepath.Join(crashDir, fmt.Sprintf("crash_20250101_1200%02d.log", i))
		if err := os.WriteFile(name, []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := cleanOldCrashLogs(crashDir); err != nil {
		t.Fatalf("cleanOldCrashLogs: %v", err)
	}
	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != MaxCrashLogs {
		t.Errorf("got %d crash logs after cleanup, want %d", len(logs), MaxCrashLogs)
	}
}

func TestCrashHandler_GetCrashLogPath(t *testing.T) {
	globalContext = &crashContext{basePath: "/tmp/test"}

	testTime := time.Date(2025, 1, 15, 14, 30, 45, 0, time.UTC)
	if got := getCrashLogPath(testTime); got != "/tmp/test/crash_logs/crash_20250115_143045.log" {
		t.Errorf("path = %q", got)
	}
}

func TestCrashHandler_DefaultBasePath(t *testing.T) {
	globalContext = &crashContext{}

	if dir := getCrashLogDir(); dir != filepath.Join(".taskloop", "crash_logs") {
		t.Errorf("default dir = %q", dir)
	}
}
