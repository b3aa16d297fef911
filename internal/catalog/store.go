package catalog

import (
	"fmt"
	"strings"
)

// Store is one physical location. the id is state-prefixed, e.g.
// "FL-1651".
type Store struct {
	Id        string  `json:"store_id"`
	Name      string  `json:"store_name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Ref renders the store reference recorded on products, e.g.
// "FL-1651 - Gainesville, FL".
func (s Store) Ref() string {
	return fmt.Sprintf("%s - %s, %s", s.Id, s.City, s.State)
}

// Number extracts the numeric storefront id out of the state-prefixed
// id, e.g. "FL-1651" -> "1651".
func (s Store) Number() (string, error) {
	_, number, found := strings.Cut(s.Id, "-")
	if !found || number == "" {
		return "", fmt.Errorf("store id %q has no numeric part", s.Id)
	}
	return number, nil
}

func (s Store) String() string {
	return s.Ref()
}
