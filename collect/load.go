package collect

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/paulzierep/micoreca/db"
	"github.com/paulzierep/micoreca/domain"
)

var (
	AddBatchSize = 500

	// UseXZFileDecompression activates XZ decompression when reading
	// file-based input (including STDIN).
	UseXZFileDecompression = false
)

// LoadConfig parameterizes a bulk catalogue load.
type LoadConfig struct {
	InputFile string // May be set to "-" to read from STDIN.
}

// Load bulk-loads a previously exported recipe set into the catalogue DB in
// batches.  Returns the number of recipes stored.
func Load(dbClient db.Client, config *LoadConfig) (int, error) {
	var (
		r   io.Reader
		err error
	)

	if config.InputFile == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(config.InputFile)
		if err != nil {
			return 0, errors.Wrapf(err, "opening %q", config.InputFile)
		}
		defer f.Close()
		r = f
	}

	if UseXZFileDecompression {
		if r, err = xz.NewReader(r); err != nil {
			return 0, errors.Wrap(err, "initializing xz decompression")
		}
	}

	var recipes map[string]*domain.Recipe
	if err := json.NewDecoder(r).Decode(&recipes); err != nil {
		return 0, errors.Wrap(err, "decoding recipe export")
	}

	var (
		batch    = make([]*domain.Recipe, 0, AddBatchSize)
		numSaved int
	)

	doBatch := func() error {
		if err := dbClient.RecipeSave(batch...); err != nil {
			return err
		}
		numSaved += len(batch)
		log.WithField("this-batch", len(batch)).WithField("total-saved", numSaved).Debug("Saved batch of recipes to DB")
		batch = make([]*domain.Recipe, 0, AddBatchSize)
		return nil
	}

	for _, recipe := range recipes {
		batch = append(batch, recipe)

		if len(batch) == AddBatchSize {
			if err := doBatch(); err != nil {
				return numSaved, err
			}
		}
	}
	if len(batch) > 0 {
		if err := doBatch(); err != nil {
			return numSaved, err
		}
	}

	log.WithField("recipes", numSaved).Info("Catalogue load finished")
	return numSaved, nil
}
