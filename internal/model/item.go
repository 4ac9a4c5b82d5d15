package model

import (
	"errors"
	"strings"
)

// ErrEmptyName is returned when an entry name is empty after trimming.
var ErrEmptyName = errors.New("name cannot be empty")

// Item is a single diary entry. The store assigns ID; Name is free text.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizeName trims surrounding whitespace and rejects blank names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// IndexOf returns the position of the item with id, or -1.
func IndexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
