package item

type createItemReq struct {
	Barcode     string `json:"barcode"`
	Location    string `json:"location"`
	Moveable    bool   `json:"moveable"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Vendor      string `json:"vendor"`
	Serial      string `json:"serial"`
}

type addChildReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Vendor      string `json:"vendor"`
	Serial      string `json:"serial"`
}

type adjustQuantityReq struct {
	Delta int64 `json:"delta" validate:"required"`
}

type setAvailabilityReq struct {
	Available *bool `json:"available" validate:"required"`
}
