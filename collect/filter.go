package collect

import (
	"os"
	"path"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"

	"github.com/paulzierep/micoreca/domain"
	"github.com/paulzierep/micoreca/pkg/unique"
)

// LoadKeywords reads the keyword list used to scope the catalogue:
//
//     keywords:
//       - microbiome
//       - metagenom*
func LoadKeywords(file string) ([]string, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", file)
	}

	var doc struct {
		Keywords []string `yaml:"keywords"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %q", file)
	}
	if len(doc.Keywords) == 0 {
		return nil, errors.Errorf("no 'keywords' list found in %q", file)
	}

	keywords := unique.FoldedStrings(doc.Keywords)
	log.WithField("keywords", len(keywords)).WithField("file", file).Info("Loaded keywords")
	return keywords, nil
}

// FilterByKeywords returns the subset of recipes whose description or
// summary text contains any of the keywords.  Keywords containing "*" are
// matched per word with wildcard semantics.  Matched keywords are recorded
// on each surviving recipe.
func FilterByKeywords(recipes map[string]*domain.Recipe, keywords []string) map[string]*domain.Recipe {
	filtered := map[string]*domain.Recipe{}

	for name, recipe := range recipes {
		matched := matchKeywords(recipe.SearchText(), keywords)
		if matched.Cardinality() == 0 {
			continue
		}

		matchedKeywords := make([]string, 0, matched.Cardinality())
		for _, kw := range matched.ToSlice() {
			matchedKeywords = append(matchedKeywords, kw.(string))
		}
		recipe.MatchedKeywords = unique.StringsSorted(matchedKeywords)

		filtered[name] = recipe
		log.WithField("recipe", name).WithField("matched", recipe.MatchedKeywords).Info("Match found")
	}

	log.WithField("total", len(filtered)).Info("Keyword filter finished")
	return filtered
}

func matchKeywords(text string, keywords []string) mapset.Set {
	matched := mapset.NewSet()
	words := strings.Fields(text)

	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if strings.Contains(kwLower, "*") {
			for _, word := range words {
				if ok, err := path.Match(kwLower, word); err == nil && ok {
					matched.Add(kw)
					break
				}
			}
		} else if strings.Contains(text, kwLower) {
			matched.Add(kw)
		}
	}
	return matched
}
