// model/item.go
package model

import "time"

// Item is a physical asset or logical group of assets. A parent item carries
// the stock counters; itemChild rows describe the physical instances and
// exactly one child per item is flagged main.
type Item struct {
	ID              int64      `json:"id"`
	Barcode         string     `json:"barcode"`
	Location        string     `json:"location"`
	Available       bool       `json:"available"`
	Moveable        bool       `json:"moveable"`
	Quantity        int64      `json:"quantity"`
	RetiredDateTime *time.Time `json:"retiredDateTime"`
}

func (i *Item) Retired() bool { return i.RetiredDateTime != nil }

type ItemChild struct {
	ID          int64       `json:"id"`
	ItemID      int64       `json:"item"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Vendor      string      `json:"vendor"`
	Serial      string      `json:"serial"`
	Main        bool        `json:"main"`
	Images      []ItemImage `json:"images"`
}

type ItemImage struct {
	ID      int64  `json:"id"`
	ChildID int64  `json:"itemChild"`
	Path    string `json:"path"`
}

// ItemDetail is the hydrated view of an item: the parent's stock fields
// merged with the main child's description, plus the remaining children.
type ItemDetail struct {
	ID              int64       `json:"id"`
	Barcode         string      `json:"barcode"`
	Location        string      `json:"location"`
	Available       bool        `json:"available"`
	Moveable        bool        `json:"moveable"`
	Quantity        int64       `json:"quantity"`
	RetiredDateTime *time.Time  `json:"retiredDateTime"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Vendor          string      `json:"vendor"`
	Serial          string      `json:"serial"`
	Images          []ItemImage `json:"images"`
	Children        []ItemChild `json:"children"`
}
