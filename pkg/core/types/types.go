// Package types holds the records shared by the spatial, projection, selection
// and visibility packages.
package types

import "cogentcore.org/core/math32"

// Item is one visualized point. Items live in a flat arena owned by a single
// projection generation; Index is the item's position in that arena.
type Item struct {
	Index    int
	Label    string
	Position math32.Vector3
	// Vector is the high-dimensional embedding used for neighbor search.
	// It must not be modified after the item is created.
	Vector []float32
}

// Hit is a spatial query result: an arena index and its exact distance to the
// query point.
type Hit struct {
	Index    int
	Distance float32
}

// LabelWeight pairs a label with its selection weight in [0,1].
type LabelWeight struct {
	Label  string  `json:"label"`
	Weight float32 `json:"weight"`
}

// Positions returns the positions of items in arena order.
func Positions(items []Item) []math32.Vector3 {
	out := make([]math32.Vector3, len(items))
	for i := range items {
		out[i] = items[i].Position
	}
	return out
}
