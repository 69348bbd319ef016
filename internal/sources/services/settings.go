package services

import (
	"strings"

	"github.com/MrSnakeDoc/readbot/internal/domain"
)

const (
	// DefaultShelf is the list books are added to when none is configured
	DefaultShelf = "to-read"
)

// Settings is the runtime view of the services file, with defaults applied.
type Settings struct {
	CatalogName      string
	ReadLaterName    string
	Retailers        []string
	DefaultShelf     string
	CatalogBaseURL   string // empty => client default
	ReadLaterAPIBase string // empty => client default
}

// Defaults returns the settings used when no services file is configured.
func Defaults() Settings {
	return Settings{
		CatalogName:   "Goodreads",
		ReadLaterName: "Pocket",
		Retailers:     append([]string(nil), domain.DefaultRetailers...),
		DefaultShelf:  DefaultShelf,
	}
}

// FromFile overlays the values present in cfg on the defaults.
func FromFile(cfg FileConfig) Settings {
	s := Defaults()
	if v := strings.TrimSpace(cfg.Goodreads.Name); v != "" {
		s.CatalogName = v
	}
	if v := strings.TrimSpace(cfg.Pocket.Name); v != "" {
		s.ReadLaterName = v
	}
	if len(cfg.Goodreads.Retailers) > 0 {
		s.Retailers = cfg.Goodreads.Retailers
	}
	if v := strings.TrimSpace(cfg.Goodreads.DefaultShelf); v != "" {
		s.DefaultShelf = v
	}
	s.CatalogBaseURL = strings.TrimSpace(cfg.Goodreads.BaseURL)
	s.ReadLaterAPIBase = strings.TrimSpace(cfg.Pocket.APIBase)
	return s
}

// Load returns the settings from path, or the defaults when path is empty.
func Load(path string) (Settings, error) {
	if path == "" {
		return Defaults(), nil
	}
	cfg, err := NewLoader(path).Load()
	if err != nil {
		return Settings{}, err
	}
	return FromFile(cfg), nil
}

// DisplayName returns the human name of a service.
func (s Settings) DisplayName(kind domain.ServiceKind) string {
	switch kind {
	case domain.CatalogService:
		return s.CatalogName
	case domain.ReadLaterService:
		return s.ReadLaterName
	default:
		return string(kind)
	}
}
