package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HistoryQuery parámetros de paginación y orden para el historial.
type HistoryQuery struct {
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size" validate:"max=100"`
	SortBy    string `query:"sort_by"`    // timestamp | quantity_change | operation_type | actor_name
	SortOrder string `query:"sort_order"` // asc | desc
}
