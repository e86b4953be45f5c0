package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/paulzierep/micoreca/domain"
)

var (
	ErrMetadataUnsupportedSrcType = errors.New("unsupported src type: must be an []byte or string")
	ErrMetadataUnsupportedDstType = errors.New("unsupported dst type: must be an *[]byte or *string")
)

type BoltConfig struct {
	DBFile      string
	BoltOptions *bolt.Options
}

func NewBoltConfig(dbFilename string) *BoltConfig {
	cfg := &BoltConfig{
		DBFile: dbFilename,
		BoltOptions: &bolt.Options{
			Timeout: 1 * time.Second,
		},
	}
	return cfg
}

func (cfg BoltConfig) Type() Type {
	return Bolt
}

type BoltClient struct {
	config *BoltConfig
	db     *bolt.DB
	mu     sync.Mutex
}

func newBoltClient(config *BoltConfig) *BoltClient {
	client := &BoltClient{
		config: config,
	}
	return client
}

func (client *BoltClient) Open() error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.db != nil {
		return nil
	}

	db, err := bolt.Open(client.config.DBFile, 0600, client.config.BoltOptions)
	if err != nil {
		return err
	}
	client.db = db

	if err := client.initDB(); err != nil {
		return err
	}

	return nil
}

func (client *BoltClient) Close() error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.db == nil {
		return nil
	}

	if err := client.db.Close(); err != nil {
		return err
	}

	client.db = nil

	return nil
}

func (client *BoltClient) initDB() error {
	return client.db.Update(func(tx *bolt.Tx) error {
		buckets := []string{
			TableMetadata,
			TableRecipes,
		}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("initDB: creating bucket %q: %s", name, err)
			}
		}
		return nil
	})
}

func (client *BoltClient) Purge(tables ...string) error {
	return client.db.Update(func(tx *bolt.Tx) error {
		for _, table := range tables {
			log.WithField("bucket", table).Debug("dropping")
			if err := tx.DeleteBucket([]byte(table)); err != nil {
				return err
			}
			log.WithField("bucket", table).Debug("creating")
			if _, err := tx.CreateBucket([]byte(table)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (client *BoltClient) RecipeSave(recipes ...*domain.Recipe) error {
	return client.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableRecipes))
		for _, recipe := range recipes {
			var (
				k   = []byte(recipe.Name)
				v   = b.Get(k)
				err error
			)
			if v == nil || recipe.ID == 0 {
				id, err := b.NextSequence()
				if err != nil {
					return fmt.Errorf("getting next ID for new recipe %q: %s", recipe.Name, err)
				}

				recipe.ID = id
			}

			if v, err = json.Marshal(recipe); err != nil {
				return fmt.Errorf("marshalling Recipe %q: %s", recipe.Name, err)
			}

			if err = b.Put(k, v); err != nil {
				return fmt.Errorf("saving Recipe %q: %s", recipe.Name, err)
			}
		}

		return nil
	})
}

// RecipeDelete N.B. no existence check is performed.
func (client *BoltClient) RecipeDelete(names ...string) error {
	return client.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableRecipes))
		for _, name := range names {
			k := []byte(name)
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("deleting recipe %q: %s", name, err)
			}
		}
		return nil
	})
}

func (client *BoltClient) Recipe(name string) (*domain.Recipe, error) {
	var recipe domain.Recipe

	if err := client.db.View(func(tx *bolt.Tx) error {
		var (
			b = tx.Bucket([]byte(TableRecipes))
			k = []byte(name)
			v = b.Get(k)
		)

		if len(v) == 0 {
			return ErrKeyNotFound
		}

		return json.Unmarshal(v, &recipe)
	}); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (client *BoltClient) EachRecipe(fn func(recipe *domain.Recipe)) error {
	return client.db.View(func(tx *bolt.Tx) error {
		var (
			b = tx.Bucket([]byte(TableRecipes))
			c = b.Cursor()
		)

		for k, v := c.First(); k != nil; k, v = c.Next() {
			var recipe domain.Recipe
			if err := json.Unmarshal(v, &recipe); err != nil {
				return err
			}
			fn(&recipe)
		}
		return nil
	})
}

func (client *BoltClient) EachRecipeWithBreak(fn func(recipe *domain.Recipe) bool) error {
	return client.db.View(func(tx *bolt.Tx) error {
		var (
			b = tx.Bucket([]byte(TableRecipes))
			c = b.Cursor()
		)

		for k, v := c.First(); k != nil; k, v = c.Next() {
			var recipe domain.Recipe
			if err := json.Unmarshal(v, &recipe); err != nil {
				return err
			}
			if cont := fn(&recipe); !cont {
				break
			}
		}
		return nil
	})
}

func (client *BoltClient) RecipesLen() (int, error) {
	var n int

	if err := client.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableRecipes))

		n = b.Stats().KeyN

		return nil
	}); err != nil {
		return 0, err
	}
	return n, nil
}

func (client *BoltClient) MetaSave(key string, src interface{}) error {
	return client.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableMetadata))

		switch src.(type) {
		case []byte:
			return b.Put([]byte(key), src.([]byte))

		case string:
			return b.Put([]byte(key), []byte(src.(string)))

		default:
			return ErrMetadataUnsupportedSrcType
		}
	})
}

func (client *BoltClient) MetaDelete(key string) error {
	return client.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableMetadata))
		return b.Delete([]byte(key))
	})
}

func (client *BoltClient) Meta(key string, dst interface{}) error {
	return client.db.View(func(tx *bolt.Tx) error {
		var (
			b = tx.Bucket([]byte(TableMetadata))
			v = b.Get([]byte(key))
		)

		switch dst.(type) {
		case *[]byte:
			ptr := dst.(*[]byte)
			*ptr = v

		case *string:
			ptr := dst.(*string)
			*ptr = string(v)

		default:
			return ErrMetadataUnsupportedDstType
		}

		return nil
	})
}
