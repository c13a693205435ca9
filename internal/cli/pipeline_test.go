package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/patch"
)

const minimalSchemaYAML = `api_version:
  ver: "6.2"
  date: "August 12, 2022"
methods:
  - names: [sendSticker, SendSticker, send_sticker]
    return_ty: RawTy("Message")
    doc:
      md: Use this method to send stickers. On success, the sent [Message] is returned.
      md_links:
        Message: https://core.telegram.org/bots/api#message
    params:
      - name: chat_id
        ty: RawTy("ChatId")
        descr:
          md: Unique identifier for the target chat
      - name: sticker
        ty: RawTy("InputFile")
        descr:
          md: Sticker to send. [More info on Sending Files »]
          md_links:
            More info on Sending Files »: https://core.telegram.org/bots/api#sending-files
      - name: disable_notification
        ty: Option(bool)
        descr:
          md: Sends the message silently.
  - names: [getMe, GetMe, get_me]
    return_ty: RawTy("Me")
    doc:
      md: A simple method for testing your bot's authentication token.
`

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeSchema(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(p, []byte(minimalSchemaYAML), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return p
}

func execute(args ...string) error {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestGeneratePipeline_DryRun_Payloads(t *testing.T) {
	schemaPath := writeSchema(t)
	outDir := filepath.Join(t.TempDir(), "payloads")

	out := captureStdout(func() {
		if err := execute("generate", "--schema", schemaPath, "--out", outDir, "--dry-run", "--no-provenance"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") || !strings.Contains(out, "- send_sticker.rs") || !strings.Contains(out, "- get_me.rs") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	// Dry-run should not create the directory
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_Payloads(t *testing.T) {
	schemaPath := writeSchema(t)
	outDir := filepath.Join(t.TempDir(), "payloads")

	if err := execute("generate", "--schema", schemaPath, "--out", outDir, "--no-provenance"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "send_sticker.rs"))
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		"// This file is auto generated by `tgcg` from the Bot API method schema (Bot API 6.2).",
		"    @[multipart = sticker]",
		"    /// Use this method to send stickers. On success, the sent [`Message`] is returned.",
		"    /// [`Message`]: crate::types::Message",
		"            /// [More info on Sending Files »]: crate::types::InputFile",
		"            pub chat_id: ChatId [into],",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("payload missing %q:\n%s", want, s)
		}
	}
}

func TestGeneratePipeline_RequesterToStdout(t *testing.T) {
	schemaPath := writeSchema(t)
	out := captureStdout(func() {
		if err := execute("generate", "--schema", schemaPath, "--target", "requester", "--no-provenance"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.HasPrefix(out, "// This block is auto generated") {
		t.Fatalf("expected block banner, got: %s", out)
	}
	if !strings.Contains(out, "fn send_sticker<C>(&self, chat_id: C, sticker: InputFile) -> Self::SendSticker") {
		t.Fatalf("missing send_sticker declaration: %s", out)
	}
	if !strings.Contains(out, "fn get_me(&self) -> Self::GetMe;") {
		t.Fatalf("missing get_me declaration: %s", out)
	}
}

func TestGeneratePipeline_SingleFileTargets(t *testing.T) {
	schemaPath := writeSchema(t)
	dir := t.TempDir()

	cases := []struct {
		target string
		file   string
		want   string
		extra  []string
	}{
		{target: "mods", file: "payloads.rs", want: "pub use send_sticker::{SendSticker, SendStickerSetters};"},
		{target: "forward", file: "forward.rs", want: "macro_rules! requester_forward {"},
		{target: "openapi", file: "api.yaml", want: "operationId: sendSticker"},
		{target: "openapi", file: "api.json", want: `"operationId": "getMe"`},
		{target: "openapi", file: "swagger.json", want: `"swagger": "2.0"`, extra: []string{"--format", "swagger2"}},
	}
	for _, tc := range cases {
		out := filepath.Join(dir, tc.file)
		args := append([]string{"generate", "--schema", schemaPath, "--target", tc.target, "--out", out, "--no-provenance"}, tc.extra...)
		if err := execute(args...); err != nil {
			t.Fatalf("%s: execute: %v", tc.target, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("%s: read: %v", tc.target, err)
		}
		if !strings.Contains(string(data), tc.want) {
			t.Fatalf("%s: output missing %q:\n%s", tc.target, tc.want, data)
		}
	}
}

func TestGeneratePipeline_StalePatchRule(t *testing.T) {
	schemaPath := writeSchema(t)
	patches := filepath.Join(t.TempDir(), "patches.yaml")
	rule := "rules:\n  - target: method\n    method: getMe\n    op: full_replace\n    text: something else\n    with: x\n"
	if err := os.WriteFile(patches, []byte(rule), 0o600); err != nil {
		t.Fatalf("write patches: %v", err)
	}
	outDir := filepath.Join(t.TempDir(), "payloads")

	err := execute("generate", "--schema", schemaPath, "--out", outDir, "--patches", patches, "--no-provenance")
	if err == nil {
		t.Fatalf("expected stale rule to fail the run")
	}
	if !errors.Is(err, patch.ErrConfig) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(outDir); statErr == nil {
		t.Fatalf("nothing may be written when patching fails")
	}
}

func TestGeneratePipeline_SchemaErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	content := strings.Replace(minimalSchemaYAML, "ty: Option(bool)", "ty: Option(Option(bool))", 1)
	if err := os.WriteFile(bad, []byte(content), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	err := execute("generate", "--schema", bad, "--target", "mods", "--no-provenance")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Location: "+bad) || !strings.Contains(err.Error(), "Path: methods[0].params[2].ty") {
		t.Fatalf("expected location and path in message, got: %v", err)
	}

	err = execute("generate", "--schema", writeSchema(t), "--target", "mods", "--require-api", ">= 7.0", "--no-provenance")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error for api constraint, got %v", err)
	}
}

func TestGeneratePipeline_RefusesHandWrittenPayload(t *testing.T) {
	schemaPath := writeSchema(t)
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "get_me.rs"), []byte("// mine\n"), 0o644); err != nil {
		t.Fatalf("prewrite: %v", err)
	}

	err := execute("generate", "--schema", schemaPath, "--out", outDir, "--no-provenance")
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "Hint:") {
		t.Fatalf("expected output usage error with hint, got %v", err)
	}
	if err := execute("generate", "--schema", schemaPath, "--out", outDir, "--no-provenance", "--force"); err != nil {
		t.Fatalf("force: %v", err)
	}
}
