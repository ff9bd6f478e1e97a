package model

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is a descriptive catalogue grouping. ParentID links categories
// into a tree.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description,omitempty" db:"description"`
	Image       string     `json:"image,omitempty" db:"image"`
	ParentID    *uuid.UUID `json:"parentCategory,omitempty" db:"parent_id"`
	SortOrder   int        `json:"order" db:"sort_order"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// CategoryRequest is the admin payload for categories. Nil fields are left
// unchanged on update.
type CategoryRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Image          string     `json:"image"`
	ParentCategory *uuid.UUID `json:"parentCategory"`
	Order          *int       `json:"order"`
	IsActive       *bool      `json:"isActive"`
}

// CategoryNode is a category with its children.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a name into a URL slug: lower case, runs of other characters
// collapsed to a single dash, no leading or trailing dash.
func Slugify(name string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// BuildCategoryTree arranges categories by parent. Categories whose parent
// is missing from the input become roots. Siblings keep SortOrder.
func BuildCategoryTree(categories []Category) []*CategoryNode {
	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	nodes := make(map[uuid.UUID]*CategoryNode, len(sorted))
	for _, c := range sorted {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}

	roots := []*CategoryNode{}
	for _, c := range sorted {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
