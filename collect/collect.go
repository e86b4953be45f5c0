package collect

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"

	"github.com/paulzierep/micoreca/domain"
)

// ParseRecipes loads all recipes under dir into memory, keyed by
// package.name from each meta.yaml rather than by folder name.
//
// Render and parse failures are fatal.
func ParseRecipes(dir string) (map[string]*domain.Recipe, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*", "meta.yaml"))
	if err != nil {
		return nil, errors.Wrapf(err, "globbing %q", dir)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no recipes found under %q", dir)
	}

	log.WithField("recipes", len(paths)).WithField("dir", dir).Info("Parsing recipe tree")

	recipes := map[string]*domain.Recipe{}
	for _, path := range paths {
		recipe, err := parseRecipeFile(path)
		if err != nil {
			return nil, err
		}
		recipes[recipe.Name] = recipe
		log.WithField("recipe", recipe.Name).Debug("Parsed")
	}

	return recipes, nil
}

func parseRecipeFile(path string) (*domain.Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}

	rendered := renderMeta(string(raw))

	var meta map[string]interface{}
	if err := yaml.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, errors.Wrapf(err, "parsing YAML in %q", path)
	}

	recipe, err := domain.RecipeFromMeta(meta)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", path)
	}
	return recipe, nil
}
