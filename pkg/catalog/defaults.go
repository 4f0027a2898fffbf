package catalog

// DefaultProducts are the products shown when nothing has been configured yet.
func DefaultProducts() []Item {
	return []Item{
		{
			ID: "1", Kind: KindProduct, Name: "Ankara Tote Bag", PriceCents: 4500, Position: 1,
			Description: "Handmade African print tote bag",
			ImageURL:    "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg?auto=compress&cs=tinysrgb&w=300",
		},
		{
			ID: "2", Kind: KindProduct, Name: "Ceramic Vase Set", PriceCents: 6500, Position: 2,
			Description: "Set of 3 handcrafted ceramic vases",
			ImageURL:    "https://images.pexels.com/photos/2162938/pexels-photo-2162938.jpeg?auto=compress&cs=tinysrgb&w=300",
		},
		{
			ID: "3", Kind: KindProduct, Name: "Throw Pillow Cover", PriceCents: 2500, Position: 3,
			Description: "Decorative pillow cover with modern design",
			ImageURL:    "https://images.pexels.com/photos/1248583/pexels-photo-1248583.jpeg?auto=compress&cs=tinysrgb&w=300",
		},
	}
}

// DefaultServices are the appointments offered when nothing has been configured yet.
func DefaultServices() []Item {
	return []Item{
		{ID: "s1", Kind: KindService, Name: "Braiding", PriceCents: 6000, Duration: "2h", Position: 1},
		{ID: "s2", Kind: KindService, Name: "Makeup", PriceCents: 4000, Duration: "1h", Position: 2},
		{ID: "s3", Kind: KindService, Name: "Photography Session", PriceCents: 10000, Duration: "1.5h", Position: 3},
	}
}

// Defaults returns products followed by services.
func Defaults() []Item {
	return append(DefaultProducts(), DefaultServices()...)
}
