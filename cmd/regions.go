package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgordon67/frac-focus/internal/region"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the configured basin definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		var classifier *region.Classifier
		var err error
		if cfg.Regions.Path != "" {
			classifier, err = region.Load(cfg.Regions.Path)
			if err != nil {
				return err
			}
		} else {
			classifier = region.Default()
		}

		for _, basin := range classifier.Basins() {
			fmt.Println(basin)
		}
		return nil
	},
}

var regionsLookupCmd = &cobra.Command{
	Use:   "lookup <state> <county>",
	Short: "Classify one state/county pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var classifier *region.Classifier
		var err error
		if cfg.Regions.Path != "" {
			classifier, err = region.Load(cfg.Regions.Path)
			if err != nil {
				return err
			}
		} else {
			classifier = region.Default()
		}

		fmt.Println(classifier.Classify(args[0], args[1]))
		return nil
	},
}

func init() {
	regionsCmd.AddCommand(regionsLookupCmd)
	rootCmd.AddCommand(regionsCmd)
}
