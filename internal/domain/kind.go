package domain

import (
	"fmt"
	"strings"
)

// ServiceKind identifies an external reading-list service a link can be imported into.
type ServiceKind string

const (
	// CatalogService is the book-cataloging service (Goodreads).
	// Retailer product links are routed here.
	CatalogService ServiceKind = "goodreads"

	// ReadLaterService is the read-it-later service (Pocket).
	// Every other well-formed link is routed here.
	ReadLaterService ServiceKind = "pocket"
)

// ServiceKinds lists every supported service, in display order.
var ServiceKinds = []ServiceKind{CatalogService, ReadLaterService}

// Valid reports whether k is a supported service.
func (k ServiceKind) Valid() bool {
	return k == CatalogService || k == ReadLaterService
}

func (k ServiceKind) String() string { return string(k) }

// ParseServiceKind maps user input ("Goodreads", " pocket ") to a ServiceKind.
func ParseServiceKind(s string) (ServiceKind, error) {
	k := ServiceKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown service %q", s)
	}
	return k, nil
}
