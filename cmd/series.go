package cmd

import (
	"github.com/spf13/cobra"
)

var seriesCmd = &cobra.Command{
	Use:   "series [url...]",
	Short: "Download every work of one or more series",
	Example: `  froyo series https://archiveofourown.org/series/1234
  froyo series --from-clipboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := gatherURLs(cmd, args)
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			a.engine.LoadWorksFromSeriesURLs(urls)
			return nil
		})
	},
}

func init() {
	seriesCmd.Flags().String("batch", "", "file with one URL per line")
	seriesCmd.Flags().Bool("from-clipboard", false, "also read URLs from the clipboard")
}
