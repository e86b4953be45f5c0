package db

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/paulzierep/micoreca/domain"
)

const (
	TableMetadata = "micoreca-metadata"
	TableRecipes  = "recipes"
)

var (
	ErrKeyNotFound = errors.New("requested key not found")
)

// Client is the persistence interface for the local catalogue.
type Client interface {
	Open() error                                               // Open / start DB client connection.
	Close() error                                              // Close / shutdown the DB client connection.
	Purge(tables ...string) error                              // Reset a DB table.
	RecipeSave(recipes ...*domain.Recipe) error                // Performs an upsert operation on collected recipes.
	RecipeDelete(names ...string) error                        // Delete recipes from the catalogue.  Complete erasure.
	Recipe(name string) (*domain.Recipe, error)                // Retrieve a specific recipe.
	EachRecipe(fn func(recipe *domain.Recipe)) error           // Iterates over all catalogued recipes and invokes callback on each.
	EachRecipeWithBreak(fn func(recipe *domain.Recipe) bool) error // Iterates over recipes until callback returns false.
	RecipesLen() (int, error)                                  // Number of recipes in the catalogue.
	MetaSave(key string, src interface{}) error                // Store metadata key/value.  NB: src must be one of raw []byte or string.
	MetaDelete(key string) error                               // Delete a metadata key.
	Meta(key string, dst interface{}) error                    // Retrieve metadata key and populate into dst.  NB: dst must be one of *[]byte or *string.
}

// Config is implemented by each storage configuration flavor.
type Config interface {
	Type() Type // Configuration type specifier.
}

// Type represents the storage backend flavor of a configuration.
type Type int

const (
	Bolt Type = iota
)

// NewClient constructs a new DB client based on the passed configuration.
func NewClient(config Config) Client {
	typ := config.Type()

	switch typ {
	case Bolt:
		return newBoltClient(config.(*BoltConfig))

	default:
		panic(fmt.Errorf("no client constructor available for db configuration type: %v", typ))
	}
}

// WithClient is a convenience utility which handles DB client construction,
// open, and close.
func WithClient(config Config, fn func(client Client) error) (err error) {
	client := NewClient(config)

	if err = client.Open(); err != nil {
		err = fmt.Errorf("opening DB client: %s", err)
		return
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("closing DB client: %s", closeErr)
			} else {
				log.Errorf("Existing error before attempt to close DB client: %s", err)
				log.Errorf("Also encountered problem closing DB client: %s", closeErr)
			}
		}
	}()

	if err = fn(client); err != nil {
		return
	}

	return
}
