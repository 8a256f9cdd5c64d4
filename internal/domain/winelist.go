package domain

import "time"

// WineList is a user-curated grouping of wine product IDs. Referential
// integrity to the catalog is soft: a list may keep a product_id whose
// wine was removed.
type WineList struct {
	ID          string // uuid
	OwnerID     string // user id, or a device id for guests
	Name        string
	Description string
	ProductIDs  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WineCount returns the number of referenced products.
func (l WineList) WineCount() int {
	return len(l.ProductIDs)
}

// Role restricts user capabilities on the API surface.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)
