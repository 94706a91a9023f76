package config

import (
	"strings"
)

// normalize expands user paths and trims string fields so the rest of the
// repository can rely on absolute, whitespace-free values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.MergedDir, err = expandPath(strings.TrimSpace(c.Paths.MergedDir)); err != nil {
		return err
	}
	if c.Paths.ArchiveFile, err = expandPath(strings.TrimSpace(c.Paths.ArchiveFile)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	if trimmed := strings.TrimSpace(c.Fetch.CookiesFile); trimmed != "" {
		if c.Fetch.CookiesFile, err = expandPath(trimmed); err != nil {
			return err
		}
	} else {
		c.Fetch.CookiesFile = ""
	}
	c.Fetch.CookiesBrowser = strings.TrimSpace(c.Fetch.CookiesBrowser)

	languages := make([]string, 0, len(c.Fetch.SubtitleLanguages))
	for _, lang := range c.Fetch.SubtitleLanguages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	c.Fetch.SubtitleLanguages = languages

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
