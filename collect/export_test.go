package collect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulzierep/micoreca/domain"
)

func TestExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "recipes.json")
	recipes := map[string]*domain.Recipe{
		"qiime2": testRecipe("qiime2", "Microbiome analysis platform", ""),
	}

	written, err := Export(file, recipes)
	if err != nil {
		t.Fatal(err)
	}
	if expected, actual := file, written; actual != expected {
		t.Errorf("Expected export path=%v but actual=%v", expected, actual)
	}

	content, err := os.ReadFile(written)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]*domain.Recipe
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatal(err)
	}
	if expected, actual := "qiime2", decoded["qiime2"].Name; actual != expected {
		t.Errorf("Expected name=%v but actual=%v", expected, actual)
	}
}

func TestExportNeverClobbers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "recipes.json")
	recipes := map[string]*domain.Recipe{
		"tool": testRecipe("tool", "", ""),
	}

	first, err := Export(file, recipes)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Export(file, recipes)
	if err != nil {
		t.Fatal(err)
	}
	third, err := Export(file, recipes)
	if err != nil {
		t.Fatal(err)
	}

	if expected, actual := filepath.Join(dir, "recipes.json"), first; actual != expected {
		t.Errorf("Expected first export path=%v but actual=%v", expected, actual)
	}
	if expected, actual := filepath.Join(dir, "recipes0.json"), second; actual != expected {
		t.Errorf("Expected second export path=%v but actual=%v", expected, actual)
	}
	if expected, actual := filepath.Join(dir, "recipes1.json"), third; actual != expected {
		t.Errorf("Expected third export path=%v but actual=%v", expected, actual)
	}
}

func TestExportPathWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "recipes")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if expected, actual := file+"0", exportPath(file); actual != expected {
		t.Errorf("Expected export path=%v but actual=%v", expected, actual)
	}
}
