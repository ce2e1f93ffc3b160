package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gearshift-group/lot-scraper/internal/site"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered listing sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range site.Names() {
			sc, err := site.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-16s %s\n", name, sc.BaseURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
