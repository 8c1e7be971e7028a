package internal

import (
	"strings"
	"testing"

	"github.com/starford/blockpad/internal/plugin"
	pkgconfig "github.com/starford/blockpad/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Dev.Enabled() {
		t.Error("dev server should be off by default")
	}
}

func TestEditorConfig_RequiresPageIDs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Editor.TriggerID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing trigger id should fail validation")
	}
}

func TestEditorConfig_Autosave(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Editor.Autosave = "@every 30s"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("descriptor schedule should pass: %v", err)
	}
	cfg.Editor.Autosave = "every now and then"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad schedule should fail validation")
	}
}

func TestEditorConfig_StockToolTable(t *testing.T) {
	cfg := NewDefaultConfig()
	tools, err := cfg.Editor.ToolTable()
	if err != nil {
		t.Fatalf("ToolTable: %v", err)
	}
	if _, ok := tools.Lookup("paragraph"); !ok {
		t.Fatal("stock table should include paragraph")
	}
	ec := cfg.Editor.EditorSettings(tools)
	if err := ec.Validate(); err != nil {
		t.Fatalf("stock editor config should validate: %v", err)
	}
}

func TestEditorConfig_DeclaredTools(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Editor.Tools = []plugin.Spec{{ID: "paragraph"}, {ID: "title", Tool: "header"}}
	tools, err := cfg.Editor.ToolTable()
	if err != nil {
		t.Fatalf("ToolTable: %v", err)
	}
	if tools.Len() != 2 {
		t.Fatalf("len = %d, want 2", tools.Len())
	}
	if _, ok := tools.Lookup("title"); !ok {
		t.Error("title should be registered")
	}

	cfg.Editor.Tools = []plugin.Spec{{ID: "nope"}}
	if _, err := cfg.Editor.ToolTable(); err == nil {
		t.Error("unknown catalog tool should fail")
	}
}

func TestDevConfig_EnabledNeedsStaticDir(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Dev.ProxyTarget = "http://localhost:8080"
	if err := cfg.Validate(); err == nil {
		t.Fatal("dev server without static dir should fail")
	}
	cfg.Dev.StaticDir = "./web"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev server config should pass: %v", err)
	}
}

func TestMirrorAndTranslateConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Mirror.Bucket = "docs"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bucket without region should fail")
	}
	cfg.Mirror.Region = "eu-west-1"
	cfg.Translate.Model = "gpt-nothing"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown model should fail")
	}
	cfg.Translate.Model = "opus"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("alias model should pass: %v", err)
	}
}

func TestSampleConfigs(t *testing.T) {
	for _, file := range []string{"../config/config.yaml", "../config/config.toml"} {
		cfg := NewDefaultConfig()
		if err := pkgconfig.Load(file, cfg); err != nil {
			t.Fatalf("%s: %v", file, err)
		}
		tools, err := cfg.Editor.ToolTable()
		if err != nil {
			t.Fatalf("%s: ToolTable: %v", file, err)
		}
		if d, ok := tools.Lookup("header"); !ok || d.InlineToolbar.Mode != plugin.ToolbarSubset {
			t.Errorf("%s: header = %+v", file, d)
		}
		ec := cfg.Editor.EditorSettings(tools)
		if err := ec.Validate(); err != nil {
			t.Errorf("%s: editor settings: %v", file, err)
		}
	}
}
