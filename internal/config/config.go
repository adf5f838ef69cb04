// Package config loads and saves the settings.ini file controlling
// credentials, download options, and engine behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/froyo-dl/froyo/internal/archive"
)

// FileName is the settings file, resolved against the base directory.
const FileName = "settings.ini"

const (
	DefaultFiletype         = "PDF"
	DefaultConcurrencyLimit = 20
)

// fileTemplate renders a settings file in a stable shape with explanatory
// comments. Saving always rewrites the whole file from this template.
const fileTemplate = `; froyo config file
;
; Please only edit manually if you know what you're doing. Otherwise, prefer
; to configure settings using the 'froyo settings' command instead.
;
; Lines beginning with the ` + "`;`" + ` character indicate a comment and will not be
; processed.

[credentials]
; This section controls settings for AO3 authentication.
; If no username and password is specified in this section, the tool will run
; in guest mode.
;
; Some AO3 features are not available while browsing in guest mode. If you would
; like to login and access bookmarks, etc. you can specify your credentials for
; AO3 in this section.
username=%s
password=%s

[downloads]
; This section controls settings for downloads. By default, files will be
; downloaded to the 'Downloads/froyo' folder next to the tool.
; Valid choices for filetype include: AZW3, EPUB, HTML, MOBI, PDF
directory=%s
filetype=%s

[engine]
; This section controls settings for how the tool behaves.
; Threading enables multiple downloads to occur concurrently in different CPU
; threads. This will make bulk downloading a lot faster. The concurrency limit
; controls how many simultaneous requests can be running at the same time.
; Rate limiting will limit the number of requests to AO3 to 12 per minute.
should_use_threading=%s
concurrency_limit=%d
should_rate_limit=%s
`

// Settings is the tool's persistent configuration.
type Settings struct {
	Username string
	Password string

	DownloadsDir string
	Filetype     string

	UseThreading     bool
	ConcurrencyLimit int
	RateLimit        bool
}

// Default returns the settings used when no file exists. The downloads
// directory is placed under baseDir.
func Default(baseDir string) Settings {
	return Settings{
		DownloadsDir:     filepath.Join(baseDir, "Downloads", "froyo"),
		Filetype:         DefaultFiletype,
		UseThreading:     true,
		ConcurrencyLimit: DefaultConcurrencyLimit,
	}
}

// Load reads settings.ini from baseDir. A missing file is not an error:
// defaults are returned and written so the user has a file to edit. Invalid
// values are logged and replaced with their defaults rather than failing the
// whole load.
func Load(baseDir string, logger *log.Logger) (Settings, error) {
	settings := Default(baseDir)
	path := filepath.Join(baseDir, FileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(baseDir, settings); err != nil {
			return settings, fmt.Errorf("writing default settings: %w", err)
		}
		return settings, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")
	v.SetDefault("downloads.directory", settings.DownloadsDir)
	v.SetDefault("downloads.filetype", settings.Filetype)
	v.SetDefault("engine.should_use_threading", true)
	v.SetDefault("engine.concurrency_limit", DefaultConcurrencyLimit)
	v.SetDefault("engine.should_rate_limit", false)

	if err := v.ReadInConfig(); err != nil {
		return settings, fmt.Errorf("reading %s: %w", path, err)
	}

	settings.Username = v.GetString("credentials.username")
	settings.Password = v.GetString("credentials.password")
	settings.DownloadsDir = v.GetString("downloads.directory")
	settings.Filetype = v.GetString("downloads.filetype")
	settings.UseThreading = v.GetBool("engine.should_use_threading")
	settings.ConcurrencyLimit = v.GetInt("engine.concurrency_limit")
	settings.RateLimit = v.GetBool("engine.should_rate_limit")

	if !filepath.IsAbs(settings.DownloadsDir) {
		settings.DownloadsDir = filepath.Join(baseDir, settings.DownloadsDir)
	}
	if !archive.ValidFiletype(settings.Filetype) {
		logger.Warn("ignoring invalid filetype in settings", "filetype", settings.Filetype, "using", DefaultFiletype)
		settings.Filetype = DefaultFiletype
	}
	if settings.ConcurrencyLimit < 1 {
		logger.Warn("ignoring invalid concurrency limit in settings", "limit", settings.ConcurrencyLimit, "using", DefaultConcurrencyLimit)
		settings.ConcurrencyLimit = DefaultConcurrencyLimit
	}

	return settings, nil
}

// Save rewrites settings.ini in baseDir from the template.
func Save(baseDir string, settings Settings) error {
	content := fmt.Sprintf(fileTemplate,
		settings.Username,
		settings.Password,
		settings.DownloadsDir,
		settings.Filetype,
		iniBool(settings.UseThreading),
		settings.ConcurrencyLimit,
		iniBool(settings.RateLimit),
	)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("creating base directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(baseDir, FileName), []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func iniBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
