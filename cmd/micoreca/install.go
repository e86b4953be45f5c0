package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paulzierep/micoreca/domain"
	"github.com/paulzierep/micoreca/env"
	"github.com/paulzierep/micoreca/installer"
	"github.com/paulzierep/micoreca/registry"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install manifest requirements into an environment",
	Long:  "Resolve a requirements manifest against the package index and install into an environment, all-or-nothing",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(EnvDir) == 0 {
			log.Fatal("main: no environment specified, see -e/--env")
		}

		e, err := env.Open(EnvDir)
		if err != nil {
			log.Fatalf("main: %s", err)
		}

		reqs, err := readManifest(ManifestFile)
		if err != nil {
			log.Fatalf("main: %s", err)
		}

		cfg := registry.NewConfig(IndexURL)
		cfg.Token = IndexToken

		result, err := installer.New(e, registry.NewClient(cfg)).Install(reqs)
		if err != nil {
			log.Fatalf("main: %s", err)
		}
		log.WithField("installed", len(result.Installed)).WithField("already-satisfied", len(result.Satisfied)).Info("Install operation finished")
	},
}

func readManifest(file string) ([]*domain.Requirement, error) {
	var r io.Reader

	if file == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	return domain.ParseManifest(r)
}
