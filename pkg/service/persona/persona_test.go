package persona_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/symbios/pkg/service/persona"
)

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	manifest := `default: symbiote
personas:
  symbiote: symbiote.md
  concise: concise.md
`
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "personas.yml"), []byte(manifest), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "symbiote.md"), []byte("# Symbiote\n\nYou share a memory."), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "concise.md"), []byte("# Concise\n\nBe brief."), 0644))

	return filepath.Join(dir, "personas.yml")
}

func TestLoadDefault(t *testing.T) {
	p, err := persona.Load(context.Background(), writeManifest(t), "")
	gt.NoError(t, err)
	gt.Equal(t, p.Variant(), "symbiote")
	gt.S(t, p.Content()).Contains("You share a memory.")
}

func TestLoadExplicitVariant(t *testing.T) {
	p, err := persona.Load(context.Background(), writeManifest(t), "concise")
	gt.NoError(t, err)
	gt.Equal(t, p.Variant(), "concise")
	gt.S(t, p.Content()).Contains("Be brief.")
}

func TestLoadUnknownVariantFallsBack(t *testing.T) {
	p, err := persona.Load(context.Background(), writeManifest(t), "nonexistent")
	gt.NoError(t, err)
	gt.Equal(t, p.Variant(), "symbiote")
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := persona.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yml"), "")
	gt.Error(t, err)
}

func TestLoadMissingDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yml")
	gt.NoError(t, os.WriteFile(path, []byte("personas:\n  a: a.md\n"), 0644))

	_, err := persona.Load(context.Background(), path, "")
	gt.Error(t, err)
}

func TestLoadMissingPersonaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yml")
	gt.NoError(t, os.WriteFile(path, []byte("default: a\npersonas:\n  a: a.md\n"), 0644))

	_, err := persona.Load(context.Background(), path, "")
	gt.Error(t, err)
}
