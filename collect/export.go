package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/paulzierep/micoreca/domain"
)

// Export writes the filtered recipe set as indented JSON.  An existing file
// at the requested path is never clobbered: a numeric suffix is appended
// until a free name is found.  Returns the path actually written.
func Export(file string, recipes map[string]*domain.Recipe) (string, error) {
	content, err := json.MarshalIndent(recipes, "", "    ")
	if err != nil {
		return "", errors.Wrap(err, "marshalling recipes")
	}

	finalPath := exportPath(file)
	if err := os.WriteFile(finalPath, content, 0644); err != nil {
		return "", errors.Wrapf(err, "writing %q", finalPath)
	}

	log.WithField("recipes", len(recipes)).WithField("file", finalPath).Info("Export written")
	return finalPath, nil
}

// exportPath resolves filename collisions by suffix-incrementing ahead of
// the file extension.
func exportPath(file string) string {
	if !fileExists(file) {
		return file
	}

	extension := ""
	suffixPosition := len(file)
	if strings.Contains(file, ".") {
		suffixPosition = strings.LastIndex(file, ".")
		extension = file[suffixPosition:]
	}

	finalPath := file
	suffix := 0
	for fileExists(finalPath) {
		finalPath = fmt.Sprintf("%s%d%s", file[0:suffixPosition], suffix, extension)
		suffix++
	}
	return finalPath
}

func fileExists(file string) bool {
	if _, err := os.Stat(file); err == nil {
		return true
	}
	return false
}
