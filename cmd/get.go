package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/froyo-dl/froyo/internal/clipboard"
)

var getCmd = &cobra.Command{
	Use:   "get [url...]",
	Short: "Download individual works by URL",
	Example: `  froyo get https://archiveofourown.org/works/12345678
  froyo get --batch works.txt
  froyo get --from-clipboard --load-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := gatherURLs(cmd, args)
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			a.engine.LoadWorksFromWorkURLs(urls)
			return nil
		})
	},
}

func init() {
	getCmd.Flags().String("batch", "", "file with one URL per line")
	getCmd.Flags().Bool("from-clipboard", false, "also read URLs from the clipboard")
}

// gatherURLs collects URLs from the positional arguments plus the --batch
// file and the clipboard when those flags are set.
func gatherURLs(cmd *cobra.Command, args []string) ([]string, error) {
	urls := append([]string(nil), args...)

	if batch, _ := cmd.Flags().GetString("batch"); batch != "" {
		fromFile, err := readURLsFromFile(batch)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	if fromClip, _ := cmd.Flags().GetBool("from-clipboard"); fromClip {
		clipped, err := clipboard.ReadURLs()
		if err != nil {
			return nil, fmt.Errorf("reading clipboard: %w", err)
		}
		urls = append(urls, clipped...)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs given; pass them as arguments, --batch, or --from-clipboard")
	}
	return urls, nil
}

// readURLsFromFile reads one URL per line, skipping blanks and # comments.
func readURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}
