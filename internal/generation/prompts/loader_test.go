package prompts

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	prompt, err := Get("customize.json", "customize_document")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(prompt, "{{.Source}}") {
		t.Errorf("customize_document prompt missing {{.Source}} placeholder")
	}
	if !strings.Contains(prompt, "{{.JobDescription}}") {
		t.Errorf("customize_document prompt missing {{.JobDescription}} placeholder")
	}
}

func TestGetMissingKey(t *testing.T) {
	if _, err := Get("customize.json", "nonexistent"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestGetMissingFile(t *testing.T) {
	if _, err := Get("nonexistent.json", "key"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormat(t *testing.T) {
	result := Format("hello {{.Name}}, welcome to {{.Place}}", map[string]string{
		"Name":  "dev",
		"Place": "the team",
	})
	if result != "hello dev, welcome to the team" {
		t.Errorf("Format() = %q", result)
	}
}

func TestMustGetPanicsOnMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing prompt")
		}
	}()
	MustGet("customize.json", "nonexistent")
}
