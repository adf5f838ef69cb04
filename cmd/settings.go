package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/froyo-dl/froyo/internal/archive"
	"github.com/froyo-dl/froyo/internal/config"
	"github.com/froyo-dl/froyo/internal/logging"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings.ini",
	Long: `settings prints the current configuration. Passing any of the flags
updates settings.ini instead; omitted values keep their current setting.`,
	Example: `  froyo settings
  froyo settings --directory ~/fics --filetype EPUB
  froyo settings --concurrency 10 --rate-limit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir, _ := cmd.Flags().GetString("base-dir")
		if baseDir == "" {
			var err error
			baseDir, err = os.Getwd()
			if err != nil {
				return err
			}
		}

		settings, err := config.Load(baseDir, logging.Discard())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		changed := false
		if flags.Changed("username") {
			settings.Username, _ = flags.GetString("username")
			changed = true
		}
		if flags.Changed("password") {
			settings.Password, _ = flags.GetString("password")
			changed = true
		}
		if flags.Changed("directory") {
			settings.DownloadsDir, _ = flags.GetString("directory")
			changed = true
		}
		if flags.Changed("filetype") {
			ft, _ := flags.GetString("filetype")
			if !archive.ValidFiletype(ft) {
				return fmt.Errorf("unsupported filetype %q (one of: AZW3, EPUB, HTML, MOBI, PDF)", ft)
			}
			settings.Filetype = ft
			changed = true
		}
		if flags.Changed("threading") {
			settings.UseThreading, _ = flags.GetBool("threading")
			changed = true
		}
		if flags.Changed("concurrency") {
			n, _ := flags.GetInt("concurrency")
			if n < 1 {
				return fmt.Errorf("concurrency must be at least 1")
			}
			settings.ConcurrencyLimit = n
			changed = true
		}
		if flags.Changed("rate-limit") {
			settings.RateLimit, _ = flags.GetBool("rate-limit")
			changed = true
		}

		if changed {
			if err := config.Save(baseDir, settings); err != nil {
				return err
			}
		}

		password := ""
		if settings.Password != "" {
			password = "(set)"
		}
		fmt.Printf("username:     %s\n", settings.Username)
		fmt.Printf("password:     %s\n", password)
		fmt.Printf("directory:    %s\n", settings.DownloadsDir)
		fmt.Printf("filetype:     %s\n", settings.Filetype)
		fmt.Printf("threading:    %t\n", settings.UseThreading)
		fmt.Printf("concurrency:  %d\n", settings.ConcurrencyLimit)
		fmt.Printf("rate limit:   %t\n", settings.RateLimit)
		return nil
	},
}

func init() {
	settingsCmd.Flags().String("username", "", "archive username")
	settingsCmd.Flags().String("password", "", "archive password")
	settingsCmd.Flags().String("directory", "", "download directory")
	settingsCmd.Flags().String("filetype", "", "download format (AZW3, EPUB, HTML, MOBI, PDF)")
	settingsCmd.Flags().Bool("threading", true, "download with multiple workers")
	settingsCmd.Flags().Int("concurrency", config.DefaultConcurrencyLimit, "worker count when threading is on")
	settingsCmd.Flags().Bool("rate-limit", false, "pace requests to stay under the archive's limit")
}
