package prompt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if c.Model() != "gemini-2.5-flash" {
		t.Fatalf("expected gemini-2.5-flash, got %q", c.Model())
	}
	if !strings.Contains(c.Instruction(true), "quản lý chung cư") {
		t.Fatalf("unexpected tenant instruction")
	}
	if !strings.Contains(c.Instruction(false), "KHÔNG được gọi") {
		t.Fatalf("unexpected guest instruction")
	}
	if c.UnauthenticatedReply() == "" {
		t.Fatalf("expected unauthenticated reply")
	}

	tools := c.Tools()
	if len(tools) != 13 {
		t.Fatalf("expected 13 tools, got %d", len(tools))
	}
	byName := map[string]int{}
	for i, tl := range tools {
		byName[tl.Name] = i
	}
	fee := tools[byName["calculate_service_fee"]]
	if fee.Parameters.Type != "object" || fee.Parameters.Properties["quantity"].Type != "number" {
		t.Fatalf("unexpected parameters: %+v", fee.Parameters)
	}
	if len(fee.Parameters.Required) != 1 || fee.Parameters.Required[0] != "service_code" {
		t.Fatalf("unexpected required: %v", fee.Parameters.Required)
	}
	status := tools[byName["get_apartments"]].Parameters.Properties["status"]
	if len(status.Enum) != 4 {
		t.Fatalf("expected 4 status values, got %v", status.Enum)
	}
}

func TestToolsReturnsCopy(t *testing.T) {
	c := Default()
	tools := c.Tools()
	tools[0].Name = "mutated"
	if c.Tools()[0].Name == "mutated" {
		t.Fatalf("Tools must not expose internal slice")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing guest",
			yaml:    "model: m\ninstructions:\n  tenant: t\n",
			wantErr: "instructions.guest",
		},
		{
			name: "duplicate tool",
			yaml: `model: m
instructions: {tenant: t, guest: g}
tools:
  - name: a
  - name: a
`,
			wantErr: "duplicate",
		},
		{
			name: "bad type",
			yaml: `model: m
instructions: {tenant: t, guest: g}
tools:
  - name: a
    parameters:
      type: object
      properties:
        x: {type: decimal}
`,
			wantErr: "unknown parameter type",
		},
		{
			name: "undeclared required",
			yaml: `model: m
instructions: {tenant: t, guest: g}
tools:
  - name: a
    parameters: {type: object, required: [x]}
`,
			wantErr: "not declared",
		},
		{
			name: "ok",
			yaml: "model: m\ninstructions: {tenant: t, guest: g}\n",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.yaml))
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("model: gemini-2.5-pro\ninstructions:\n  guest: Xin chào khách\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "gemini-2.5-pro" {
		t.Fatalf("expected overlay model, got %q", c.Model())
	}
	if c.Instruction(false) != "Xin chào khách" {
		t.Fatalf("expected overlay guest instruction, got %q", c.Instruction(false))
	}
	if c.Instruction(true) != Default().Instruction(true) {
		t.Fatalf("tenant instruction should keep the default")
	}
	if len(c.Tools()) != 13 {
		t.Fatalf("tools should keep the default list")
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("model: first\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(path, []byte("tools: [{name: a}, {name: a}]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.Reload(path); err == nil {
		t.Fatalf("expected reload error")
	}
	if c.Model() != "first" {
		t.Fatalf("expected previous catalog, got model %q", c.Model())
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("model: first\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, path, zerolog.Nop()) }()

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("model: second\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for c.Model() != "second" {
		if time.Now().After(deadline) {
			t.Fatalf("catalog was not reloaded, model %q", c.Model())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected watch error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestReloadRequestedDuringReloadRunsAgain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kick := make(chan struct{}, 1)
	started := make(chan int, 4)
	release := make(chan struct{})
	runs := 0
	go runReloads(ctx, kick, time.Millisecond, func() {
		runs++
		started <- runs
		<-release
	})

	requestReload(kick)
	if n := <-started; n != 1 {
		t.Fatalf("expected first reload, got %d", n)
	}

	// writes landing while the file is being read
	requestReload(kick)
	requestReload(kick)
	release <- struct{}{}

	select {
	case n := <-started:
		if n != 2 {
			t.Fatalf("expected second reload, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("write during reload was dropped")
	}
	release <- struct{}{}

	select {
	case n := <-started:
		t.Fatalf("expected coalesced kicks, got reload %d", n)
	case <-time.After(50 * time.Millisecond):
	}
}
