package db

import (
	"os"
	"path/filepath"
	"testing"

	"gigawatt.io/testlib"

	"github.com/paulzierep/micoreca/domain"
)

func withTestClient(t *testing.T, fn func(client Client)) {
	filename := filepath.Join(os.TempDir(), testlib.CurrentRunningTest())

	os.RemoveAll(filename)

	defer func() {
		if err := os.RemoveAll(filename); err != nil {
			t.Errorf("%s", err)
		}
	}()

	if err := WithClient(NewBoltConfig(filename), func(client Client) error {
		fn(client)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestClientRecipeOperations(t *testing.T) {
	withTestClient(t, func(client Client) {
		names := []string{
			"samtools",
			"bwa",
			"fastqc",
		}

		for i, name := range names {
			recipe := domain.NewRecipe(name)
			recipe.Summary = "some sequencing tool"

			if err := client.RecipeSave(recipe); err != nil {
				t.Fatal(err)
			}
			l, err := client.RecipesLen()
			if err != nil {
				t.Fatal(err)
			}
			if expected, actual := i+1, l; actual != expected {
				t.Errorf("[i=%v] Expected catalogue len=%v but actual=%v", i, expected, actual)
			}
		}

		// Upserting an existing name must not grow the catalogue.
		{
			recipe := domain.NewRecipe("samtools")
			recipe.Version = "1.17"
			if err := client.RecipeSave(recipe); err != nil {
				t.Fatal(err)
			}
			l, err := client.RecipesLen()
			if err != nil {
				t.Fatal(err)
			}
			if expected, actual := 3, l; actual != expected {
				t.Errorf("Expected catalogue len=%v but actual=%v", expected, actual)
			}
		}

		{
			recipe, err := client.Recipe("samtools")
			if err != nil {
				t.Fatal(err)
			}
			if expected, actual := "1.17", recipe.Version; actual != expected {
				t.Errorf("Expected version=%v but actual=%v", expected, actual)
			}
			if recipe.ID == 0 {
				t.Error("Expected recipe ID to be assigned but actual=0")
			}
		}

		{
			if _, err := client.Recipe("nonexistent"); err != ErrKeyNotFound {
				t.Errorf("Expected err=%v but actual=%v", ErrKeyNotFound, err)
			}
		}

		{
			seen := []string{}
			if err := client.EachRecipe(func(recipe *domain.Recipe) {
				seen = append(seen, recipe.Name)
			}); err != nil {
				t.Fatal(err)
			}
			if expected, actual := 3, len(seen); actual != expected {
				t.Errorf("Expected number of iterated recipes=%v but actual=%v", expected, actual)
			}
		}

		{
			n := 0
			if err := client.EachRecipeWithBreak(func(recipe *domain.Recipe) bool {
				n++
				return false
			}); err != nil {
				t.Fatal(err)
			}
			if expected, actual := 1, n; actual != expected {
				t.Errorf("Expected early-stopped iteration count=%v but actual=%v", expected, actual)
			}
		}

		{
			if err := client.RecipeDelete("bwa"); err != nil {
				t.Fatal(err)
			}
			l, err := client.RecipesLen()
			if err != nil {
				t.Fatal(err)
			}
			if expected, actual := 2, l; actual != expected {
				t.Errorf("Expected catalogue len=%v but actual=%v", expected, actual)
			}
		}

		{
			if err := client.Purge(TableRecipes); err != nil {
				t.Fatal(err)
			}
			l, err := client.RecipesLen()
			if err != nil {
				t.Fatal(err)
			}
			if expected, actual := 0, l; actual != expected {
				t.Errorf("Expected catalogue len after purge=%v but actual=%v", expected, actual)
			}
		}
	})
}

func TestClientMetaOperations(t *testing.T) {
	withTestClient(t, func(client Client) {
		if err := client.MetaSave("updated-at", "2024-01-01"); err != nil {
			t.Fatal(err)
		}

		var s string
		if err := client.Meta("updated-at", &s); err != nil {
			t.Fatal(err)
		}
		if expected, actual := "2024-01-01", s; actual != expected {
			t.Errorf("Expected meta value=%v but actual=%v", expected, actual)
		}

		if err := client.MetaSave("raw", []byte{0x1, 0x2}); err != nil {
			t.Fatal(err)
		}
		var bs []byte
		if err := client.Meta("raw", &bs); err != nil {
			t.Fatal(err)
		}
		if expected, actual := 2, len(bs); actual != expected {
			t.Errorf("Expected meta len=%v but actual=%v", expected, actual)
		}

		if err := client.MetaSave("bad", 42); err != ErrMetadataUnsupportedSrcType {
			t.Errorf("Expected err=%v but actual=%v", ErrMetadataUnsupportedSrcType, err)
		}
		var n int
		if err := client.Meta("updated-at", &n); err != ErrMetadataUnsupportedDstType {
			t.Errorf("Expected err=%v but actual=%v", ErrMetadataUnsupportedDstType, err)
		}

		if err := client.MetaDelete("updated-at"); err != nil {
			t.Fatal(err)
		}
		var gone string
		if err := client.Meta("updated-at", &gone); err != nil {
			t.Fatal(err)
		}
		if expected, actual := "", gone; actual != expected {
			t.Errorf("Expected deleted meta value=%q but actual=%q", expected, actual)
		}
	})
}
