package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	d := filepath.Join(root, dir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(d, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const weatherSkill = `---
name: weather
description: Looks up the forecast.
metadata:
  hermes:
    channels: [sms, whatsapp]
    tools: [resolve_date]
    match: [weather, forecast, rain]
---
Check the forecast and answer in one sentence.`

func TestLoadAndGet(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)

	r := NewRegistry(Config{BundledDir: bundled})
	if errs := r.LoadErrors(); len(errs) != 0 {
		t.Fatalf("load errors: %v", errs)
	}
	s, ok := r.Get("weather")
	if !ok {
		t.Fatal("weather skill not loaded")
	}
	if !s.Enabled {
		t.Error("enabled should default to true")
	}
	if s.Source != SourceBundled {
		t.Errorf("source = %q, want bundled", s.Source)
	}
	if !s.RoutableFrom("sms") || s.RoutableFrom("email") {
		t.Error("channel routing does not match declared channels")
	}
}

func TestImportedOverridesBundled(t *testing.T) {
	bundled, imported := t.TempDir(), t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)
	writeSkill(t, imported, "weather", strings.Replace(weatherSkill,
		"Looks up the forecast.", "Custom forecast.", 1))

	r := NewRegistry(Config{BundledDir: bundled, ImportedDir: imported})
	s, ok := r.Get("weather")
	if !ok {
		t.Fatal("weather skill not loaded")
	}
	if s.Source != SourceImported {
		t.Errorf("source = %q, want imported", s.Source)
	}
	if s.Description != "Custom forecast." {
		t.Errorf("description = %q, want override", s.Description)
	}
	if len(r.List()) != 1 {
		t.Errorf("List() = %d skills, want 1", len(r.List()))
	}
}

func TestLoadErrorsAreCollectedNotFatal(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)
	writeSkill(t, bundled, "broken", "---\nname: Broken Name\ndescription: x\n---\nbody")

	r := NewRegistry(Config{BundledDir: bundled})
	if _, ok := r.Get("weather"); !ok {
		t.Error("valid skill should survive a sibling's failure")
	}
	if len(r.LoadErrors()) != 1 {
		t.Errorf("LoadErrors() = %d, want 1", len(r.LoadErrors()))
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)

	r := NewRegistry(Config{BundledDir: bundled})
	before := r.List()
	r.Rebuild()
	after := r.List()
	if len(before) != len(after) || before[0].Name != after[0].Name {
		t.Errorf("rebuild changed the set: %v vs %v", before, after)
	}
}

func TestMatchForMessage(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)
	r := NewRegistry(Config{BundledDir: bundled})

	tests := []struct {
		name    string
		text    string
		channel string
		want    bool
		minConf float64
	}{
		{"single hint", "what's the weather today?", "sms", true, 0.3},
		{"two hints", "weather forecast for tomorrow", "sms", true, 0.6},
		{"case insensitive", "WILL IT RAIN?", "sms", true, 0.3},
		{"no hint", "call my mom", "sms", false, 0},
		{"wrong channel", "weather please", "email", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.MatchForMessage(tt.text, tt.channel)
			if ok != tt.want {
				t.Fatalf("matched = %v, want %v", ok, tt.want)
			}
			if ok && m.Confidence < tt.minConf {
				t.Errorf("confidence = %v, want >= %v", m.Confidence, tt.minConf)
			}
		})
	}
}

func TestMatchBelowThresholdRejected(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "wide", `---
name: wide
description: Many hints.
metadata:
  hermes:
    match: [alpha, beta, gamma, delta]
---
body`)
	r := NewRegistry(Config{BundledDir: bundled, ConfidenceThreshold: 0.3})

	// 1 of 4 hints is 0.25, under the 0.3 threshold.
	if _, ok := r.MatchForMessage("alpha only", "sms"); ok {
		t.Error("match below threshold should be rejected")
	}
	if _, ok := r.MatchForMessage("alpha and beta", "sms"); !ok {
		t.Error("2 of 4 hints should clear the threshold")
	}
}

func TestExecuteByName(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "weather", weatherSkill)
	refDir := filepath.Join(bundled, "weather", "references")
	if err := os.MkdirAll(refDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(refDir, "cities.md"), []byte("Rome, Oslo"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(Config{BundledDir: bundled})
	var got ExecuteRequest
	r.SetExecuteFunc(func(ctx context.Context, req ExecuteRequest) *ExecuteResult {
		got = req
		return &ExecuteResult{Success: true, Output: "sunny"}
	})

	res, err := r.ExecuteByName(context.Background(), "weather", "forecast for Rome")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Output != "sunny" {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(got.SystemPrompt, "Check the forecast") {
		t.Error("prompt missing markdown body")
	}
	if !strings.Contains(got.SystemPrompt, "## Resource: references/cities.md") {
		t.Error("prompt missing resource section")
	}
	if !strings.Contains(got.SystemPrompt, "Rome, Oslo") {
		t.Error("prompt missing resource content")
	}
	if len(got.AllowedTools) != 1 || got.AllowedTools[0] != "resolve_date" {
		t.Errorf("allowed tools = %v", got.AllowedTools)
	}
}

func TestExecuteRefusals(t *testing.T) {
	bundled := t.TempDir()
	writeSkill(t, bundled, "off", `---
name: off
description: Disabled skill.
metadata:
  hermes:
    enabled: false
---
body`)
	r := NewRegistry(Config{BundledDir: bundled})
	r.SetExecuteFunc(func(ctx context.Context, req ExecuteRequest) *ExecuteResult {
		t.Fatal("execute func should not be reached")
		return nil
	})

	if _, err := r.ExecuteByName(context.Background(), "missing", "x"); err == nil {
		t.Error("unknown skill should error")
	}
	if _, err := r.ExecuteByName(context.Background(), "off", "x"); err == nil {
		t.Error("disabled skill should error")
	}
}

func TestSafeRead(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "note.txt")
	if err := os.WriteFile(inside, []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got, err := SafeRead(root, inside); err != nil || string(got) != "ok" {
		t.Errorf("in-root read failed: %v", err)
	}
	if _, err := SafeRead(root, outside); err == nil {
		t.Error("read outside root should be refused")
	}
	if _, err := SafeRead(root, filepath.Join(root, "..", "escape.txt")); err == nil {
		t.Error("dot-dot escape should be refused")
	}

	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(outside, link); err == nil {
		if _, err := SafeRead(root, link); err == nil {
			t.Error("symlink read should be refused")
		}
	}
}

func TestFrontMatterValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", weatherSkill, false},
		{"missing front matter", "just markdown", true},
		{"unterminated", "---\nname: x\ndescription: y", true},
		{"bad name", "---\nname: Bad_Name\ndescription: y\n---\nbody", true},
		{"no description", "---\nname: ok\n---\nbody", true},
		{"bad channel", "---\nname: ok\ndescription: y\nmetadata:\n  hermes:\n    channels: [carrier-pigeon]\n---\nbody", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, _, err := splitFrontMatter([]byte(tt.content))
			if err == nil {
				err = fm.validate()
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
