package main

import (
	"github.com/onrik/logrus/filename"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paulzierep/micoreca/collect"
)

var (
	DBFile  = "micoreca.bolt"
	Quiet   bool
	Verbose bool

	EnvDir       string
	ManifestFile = "requirements.txt"
	IndexURL     string
	IndexToken   string

	CollectRecipesDir   string
	CollectKeywordsFile string
	CollectOutputFile   = "recipes.json"

	LoadInputFile string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "Activate quiet log output")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Activate verbose log output")
	rootCmd.PersistentFlags().StringVarP(&DBFile, "db", "b", DBFile, "Path to BoltDB file")

	installCmd.Flags().StringVarP(&EnvDir, "env", "e", EnvDir, "Path to target environment")
	installCmd.Flags().StringVarP(&ManifestFile, "requirements", "r", ManifestFile, "Path to requirements manifest (\"-\" reads from STDIN)")
	installCmd.Flags().StringVarP(&IndexURL, "index", "i", IndexURL, "Package index base URL")

	collectCmd.Flags().StringVarP(&CollectRecipesDir, "recipes", "r", CollectRecipesDir, "Path to recipe tree to scan")
	collectCmd.Flags().StringVarP(&CollectKeywordsFile, "keywords", "k", CollectKeywordsFile, "Path to YAML keywords file")
	collectCmd.Flags().StringVarP(&CollectOutputFile, "output", "o", CollectOutputFile, "Output JSON filename")

	loadCmd.Flags().StringVarP(&LoadInputFile, "file", "f", LoadInputFile, "Path to recipe export to load (\"-\" reads from STDIN)")
	loadCmd.Flags().IntVarP(&collect.AddBatchSize, "batch-size", "B", collect.AddBatchSize, "Batch size per DB transaction when bulk-loading recipes")
	loadCmd.Flags().BoolVarP(&collect.UseXZFileDecompression, "xz", "x", collect.UseXZFileDecompression, "Activate XZ decompression when reading file-based input (including STDIN)")

	envCmd.AddCommand(envCreateCmd)
	envCmd.AddCommand(envActivateCmd)

	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(purgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "micoreca",
	Short: "Microbiome community resource catalogue",
	Long:  "Collect, catalogue, and install microbiome analysis software",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info("See -h/--help for usage information")
	},
}

func initCLI() {
	if err := NewConfig().Do(); err != nil {
		log.Fatalf("main: %s", err)
	}
	initLogging()
}

func initLogging() {
	level := log.InfoLevel
	if Verbose {
		log.AddHook(filename.NewHook())
		level = log.DebugLevel
	}
	if Quiet {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}
