package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Verify archive credentials",
	Long: `login checks a username and password against the archive. With --save
the verified credentials are written to settings.ini, after which every
command runs logged in.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password := args[0], args[1]

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		a.engine.Login(username, password)
		if err := a.waitIdle(); err != nil {
			return err
		}
		if !a.engine.IsAuthed() {
			return fmt.Errorf("login failed for %q", username)
		}
		fmt.Printf("Logged in as %s.\n", a.engine.Session().Username())

		if save, _ := cmd.Flags().GetBool("save"); save {
			settings := a.engine.Config()
			settings.Username = username
			settings.Password = password
			if err := a.engine.UpdateSettings(settings); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}
			fmt.Println("Credentials saved to settings.ini.")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().Bool("save", false, "store the credentials in settings.ini")
}
