package catalog

import "errors"

// ErrNotFound is returned when an item is missing so HTTP handlers can respond with 404.
var ErrNotFound = errors.New("catalog item not found")

// ErrDuplicateID is returned when a new item reuses an existing id.
var ErrDuplicateID = errors.New("catalog item id already exists")
