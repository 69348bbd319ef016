package services

// FileConfig is the root structure of services.yaml
//
//	goodreads:
//	  name: Goodreads
//	  retailers: [amazon]
//	  default_shelf: to-read
//	pocket:
//	  name: Pocket
type FileConfig struct {
	Goodreads CatalogProps   `yaml:"goodreads"`
	Pocket    ReadLaterProps `yaml:"pocket"`
}

// CatalogProps configures the book-cataloging service
type CatalogProps struct {
	Name         string   `yaml:"name,omitempty"`
	Retailers    []string `yaml:"retailers,omitempty"`
	DefaultShelf string   `yaml:"default_shelf,omitempty"`
	BaseURL      string   `yaml:"base_url,omitempty"`
}

// ReadLaterProps configures the read-it-later service
type ReadLaterProps struct {
	Name    string `yaml:"name,omitempty"`
	APIBase string `yaml:"api_base,omitempty"`
}
