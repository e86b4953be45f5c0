package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gigawatt.io/errorlib"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paulzierep/micoreca/db"
	"github.com/paulzierep/micoreca/domain"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List catalogued recipes",
	Long:  "List all recipes in the catalogue DB as a table",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.WithClient(db.NewBoltConfig(DBFile), func(dbClient db.Client) error {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"NAME", "VERSION", "SUMMARY", "KEYWORDS"})
			if err := dbClient.EachRecipe(func(recipe *domain.Recipe) {
				table.Append([]string{
					recipe.Name,
					recipe.Version,
					truncate(recipe.Summary, 60),
					strings.Join(recipe.MatchedKeywords, ","),
				})
			}); err != nil {
				return err
			}
			table.Render()
			return nil
		}); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "[name]",
	Long:  "Print one catalogued recipe as JSON",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.WithClient(db.NewBoltConfig(DBFile), func(dbClient db.Client) error {
			recipe, err := dbClient.Recipe(args[0])
			if err != nil {
				return fmt.Errorf("getting recipe: %s", err)
			}
			j, err := json.MarshalIndent(recipe, "", "    ")
			if err != nil {
				return fmt.Errorf("marshalling recipe to JSON: %s", err)
			}
			fmt.Println(string(j))
			return nil
		}); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Catalogue stats",
	Long:  "Print catalogue DB counts",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.WithClient(db.NewBoltConfig(DBFile), func(dbClient db.Client) error {
			l, err := dbClient.RecipesLen()
			if err != nil {
				return fmt.Errorf("getting recipes count: %s", err)
			}
			log.WithField("recipes", l).Info("count")
			return nil
		}); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "[table ..]",
	Long:  "Remove all entries from one or more catalogue DB tables",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.WithClient(db.NewBoltConfig(DBFile), func(dbClient db.Client) error {
			errs := []error{}
			for _, arg := range args {
				switch arg {
				case db.TableRecipes, "recipe":
					if err := dbClient.Purge(db.TableRecipes); err != nil {
						errs = append(errs, fmt.Errorf("purging recipes: %s", err))
					}

				case db.TableMetadata, "metadata", "meta":
					if err := dbClient.Purge(db.TableMetadata); err != nil {
						errs = append(errs, fmt.Errorf("purging metadata: %s", err))
					}

				default:
					errs = append(errs, fmt.Errorf("unrecognized table %q", arg))
				}
			}
			return errorlib.Merge(errs)
		}); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[0:max-2] + ".."
}
