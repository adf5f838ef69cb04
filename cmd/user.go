package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user [username...]",
	Short: "Download a user's posted works or bookmarks",
	Example: `  froyo user astolat
  froyo user --bookmarks astolat
  froyo user --self`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bookmarks, _ := cmd.Flags().GetBool("bookmarks")
		self, _ := cmd.Flags().GetBool("self")

		if self && len(args) > 0 {
			return fmt.Errorf("--self takes no usernames")
		}
		if !self && len(args) == 0 {
			return fmt.Errorf("no usernames given")
		}

		return run(cmd, func(a *app) error {
			switch {
			case self:
				return a.engine.LoadSelfBookmarks()
			case bookmarks:
				a.engine.LoadBookmarksByUsernames(args)
			default:
				a.engine.LoadWorksByUsernames(args)
			}
			return nil
		})
	},
}

func init() {
	userCmd.Flags().Bool("bookmarks", false, "load the users' public bookmarks instead of their works")
	userCmd.Flags().Bool("self", false, "load your own bookmarks (requires credentials in settings.ini)")
}
