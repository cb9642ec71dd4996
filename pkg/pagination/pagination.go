package pagination

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the report page size when none is configured.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows a page query can request.
	MaxPageSize = 100
	// MaxPageNumber keeps Offset well inside int range for any page size.
	MaxPageNumber = 1_000_000
)

// Page is a 1-based page number paired with a page size.
type Page struct {
	Number int
	Size   int
}

// New builds a page, normalizing the size against the defaults.
func New(number, size int) Page {
	return Page{Number: number, Size: NormalizeSize(size)}
}

// NormalizeSize enforces the configured default and maximum sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Offset returns how many rows precede the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	number := p.Number
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	return (number - 1) * p.Size
}

// Limit returns the page size.
func (p Page) Limit() int {
	return p.Size
}

// ParseNumber parses a 1-based page number from a path segment.
func ParseNumber(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("page number required")
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", value)
	}
	if n < 1 {
		return 0, fmt.Errorf("page number must be at least 1")
	}
	if n > MaxPageNumber {
		return 0, fmt.Errorf("page number must be at most %d", MaxPageNumber)
	}
	return n, nil
}
