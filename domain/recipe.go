package domain

import (
	"fmt"
	"strings"
	"time"
)

// Recipe is a single collected catalogue record, originating from one
// rendered and parsed meta.yaml.
type Recipe struct {
	ID              uint64                 `json:"id,omitempty"`
	Name            string                 `json:"name"`
	Version         string                 `json:"version,omitempty"`
	Summary         string                 `json:"summary,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Home            string                 `json:"home,omitempty"`
	License         string                 `json:"license,omitempty"`
	MatchedKeywords []string               `json:"matched_keywords,omitempty"`
	FirstSeenAt     *time.Time             `json:"first_seen_at,omitempty"`
	Raw             map[string]interface{} `json:"raw,omitempty"`
}

func NewRecipe(name string) *Recipe {
	now := time.Now()

	recipe := &Recipe{
		Name:        name,
		FirstSeenAt: &now,
	}

	return recipe
}

// RecipeFromMeta builds a Recipe from a parsed meta.yaml document.  The
// "package.name" field is mandatory; everything else is best-effort.
func RecipeFromMeta(meta map[string]interface{}) (*Recipe, error) {
	name := metaString(meta, "package", "name")
	if name == "" {
		return nil, fmt.Errorf("missing package.name")
	}

	recipe := NewRecipe(name)
	recipe.Version = metaString(meta, "package", "version")
	recipe.Summary = metaString(meta, "about", "summary")
	recipe.Description = metaString(meta, "about", "description")
	recipe.Home = metaString(meta, "about", "home")
	recipe.License = metaString(meta, "about", "license")
	recipe.Raw = meta

	return recipe, nil
}

// SearchText returns the lowercased free text the keyword filter runs over.
func (recipe *Recipe) SearchText() string {
	return strings.ToLower(recipe.Description + " " + recipe.Summary)
}

// metaString digs a string value out of nested map levels, tolerating scalar
// YAML types along the way.
func metaString(meta map[string]interface{}, keys ...string) string {
	var cur interface{} = meta
	for _, key := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		if cur, ok = m[key]; !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	}
	return ""
}
