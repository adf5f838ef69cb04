package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <url>",
	Short: "Download the works of an archive listing page",
	Long: `list walks an archive listing, tag works pages, search results, or
collections, and downloads every work it finds. Use --start and --end to
limit which result pages are walked; --end 0 means every page.`,
	Example: `  froyo list "https://archiveofourown.org/tags/Podfic/works"
  froyo list --start 2 --end 5 "https://archiveofourown.org/works/search?work_search%5Bquery%5D=knitting"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")

		return run(cmd, func(a *app) error {
			return a.engine.LoadWorksFromGenericURL(args[0], start, end)
		})
	},
}

func init() {
	listCmd.Flags().Int("start", 1, "first result page to walk")
	listCmd.Flags().Int("end", 0, "last result page to walk (0 = all)")
}
