package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category forms a two-level tree: roots and their subcategories.
type Category struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      LocalizedText       `bson:"name" json:"name"`
	Parent    *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	IsActive  bool                `bson:"isActive" json:"isActive"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

func (c Category) IsRoot() bool {
	return c.Parent == nil || c.Parent.IsZero()
}

type CategoryNode struct {
	Category
	Subcategories []Category `json:"subcategories"`
}

// BuildCategoryTree groups subcategories under their roots, keeping input order.
func BuildCategoryTree(categories []Category) []CategoryNode {
	index := make(map[primitive.ObjectID]int)
	nodes := make([]CategoryNode, 0)
	for _, c := range categories {
		if c.IsRoot() {
			index[c.ID] = len(nodes)
			nodes = append(nodes, CategoryNode{Category: c, Subcategories: []Category{}})
		}
	}
	for _, c := range categories {
		if c.IsRoot() {
			continue
		}
		if i, ok := index[*c.Parent]; ok {
			nodes[i].Subcategories = append(nodes[i].Subcategories, c)
		}
	}
	return nodes
}
