package catalog

// Kind separates bookable services from orderable products.
type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindProduct || k == KindService
}

// Item is one entry of the catalog offered on a creator's booking page.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	PriceCents  int64  `json:"price_cents" yaml:"price_cents"`
	Description string `json:"description" yaml:"description"`
	ImageURL    string `json:"image_url" yaml:"image_url"`
	// Duration is display text for services, such as "1.5h".
	Duration string `json:"duration,omitempty" yaml:"duration"`
	Position int    `json:"position" yaml:"position"`
}

// Catalog is an immutable, ordered snapshot of items.
type Catalog struct {
	items []Item
}

// New copies items so later changes by the caller do not leak into the snapshot.
func New(items []Item) Catalog {
	return Catalog{items: append([]Item(nil), items...)}
}

// Items returns a copy of the ordered entries.
func (c Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Len reports the number of entries.
func (c Catalog) Len() int { return len(c.items) }

// Find looks up an item by id.
func (c Catalog) Find(id string) (Item, bool) {
	if id == "" {
		return Item{}, false
	}
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
