package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paulzierep/micoreca/env"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Environment management",
	Long:  "Create and activate isolated package environments",
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info("See -h/--help for usage information")
	},
}

var envCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "[path]",
	Long:  "Create a fresh environment rooted at the given path",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := env.Create(args[0]); err != nil {
			log.Fatalf("main: %s", err)
		}
	},
}

var envActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "[path]",
	Long:  "Emit the shell fragment which activates the environment at the given path",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(_ *cobra.Command, _ []string) {
		initCLI()
	},
	Run: func(cmd *cobra.Command, args []string) {
		e, err := env.Open(args[0])
		if err != nil {
			log.Fatalf("main: %s", err)
		}
		fmt.Print(e.ActivateScript())
	},
}
