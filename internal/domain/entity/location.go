package entity

import "time"

// Location representa una ubicación de almacenamiento (bodega, estante, caja).
type Location struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
