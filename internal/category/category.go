// Package category lists the Adobe Stock categories and parses user selections.
package category

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is one Adobe Stock category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Label returns the "<id> - <name>" display label.
func (c Category) Label() string {
	return fmt.Sprintf("%d - %s", c.ID, c.Name)
}

// All is the fixed category list in id order.
var All = []Category{
	{1, "Animals"},
	{2, "Architecture"},
	{3, "Business"},
	{4, "Drinks"},
	{5, "Nature"},
	{6, "Emotions"},
	{7, "Food"},
	{8, "Graphic"},
	{9, "Hobbies"},
	{10, "Industry"},
	{11, "Landscape"},
	{12, "Lifestyle"},
	{13, "People"},
	{14, "Plants"},
	{15, "Culture"},
	{16, "Science"},
	{17, "Social Issues"},
	{18, "Sports"},
	{19, "Technology"},
	{20, "Transport"},
	{21, "Travel"},
}

// Labels returns the display labels of all categories.
func Labels() []string {
	labels := make([]string, len(All))
	for i, c := range All {
		labels[i] = c.Label()
	}
	return labels
}

// Parse resolves a selection to its numeric id as persisted in the CSV.
// Accepted forms: "3 - Business", "3", "business".
func Parse(selection string) (string, error) {
	s := strings.TrimSpace(selection)
	if s == "" {
		return "", fmt.Errorf("empty category")
	}
	if prefix, _, ok := strings.Cut(s, " - "); ok {
		s = strings.TrimSpace(prefix)
	}

	if id, err := strconv.Atoi(s); err == nil {
		for _, c := range All {
			if c.ID == id {
				return strconv.Itoa(c.ID), nil
			}
		}
		return "", fmt.Errorf("unknown category id %d (valid: 1-%d)", id, len(All))
	}

	for _, c := range All {
		if strings.EqualFold(c.Name, s) {
			return strconv.Itoa(c.ID), nil
		}
	}
	return "", fmt.Errorf("unknown category %q", selection)
}
