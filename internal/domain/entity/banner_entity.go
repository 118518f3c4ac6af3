package entity

// Banner is read-only promotional content.
type Banner struct {
	ID          string
	Name        string
	Image       string
	Description string
	Status      Status
}
