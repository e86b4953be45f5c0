package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paulzierep/micoreca/collect"
	"github.com/paulzierep/micoreca/db"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect recipes matching a keyword set",
	Long:  "Parse a recipe tree, filter by keywords, and export the matches as JSON",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(CollectRecipesDir) == 0 {
			log.Fatal("main: no recipe tree specified, see -r/--recipes")
		}
		if len(CollectKeywordsFile) == 0 {
			log.Fatal("main: no keywords file specified, see -k/--keywords")
		}

		recipes, err := collect.ParseRecipes(CollectRecipesDir)
		if err != nil {
			log.Fatalf("main: %s", err)
		}

		keywords, err := collect.LoadKeywords(CollectKeywordsFile)
		if err != nil {
			log.Fatalf("main: %s", err)
		}

		filtered := collect.FilterByKeywords(recipes, keywords)

		written, err := collect.Export(CollectOutputFile, filtered)
		if err != nil {
			log.Fatalf("main: %s", err)
		}
		log.WithField("matches", len(filtered)).WithField("file", written).Info("Collect operation finished")
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk-load a recipe export into the catalogue DB",
	Long:  "Bulk-load a previously collected recipe export into the catalogue DB in batches",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(LoadInputFile) == 0 {
			log.Fatal("main: no input file specified, see -f/--file")
		}

		if err := db.WithClient(db.NewBoltConfig(DBFile), func(dbClient db.Client) error {
			_, err := collect.Load(dbClient, &collect.LoadConfig{InputFile: LoadInputFile})
			return err
		}); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}
