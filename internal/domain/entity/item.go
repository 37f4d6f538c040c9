package entity

import "time"

// Item representa un artículo del catálogo. El catálogo se administra fuera de
// este motor; aquí solo se consulta para validar existencia.
type Item struct {
	ID        string
	SKU       string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
