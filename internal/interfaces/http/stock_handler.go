package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	"github.com/tu-usuario/stock-ledger/internal/domain"
)

// StockHandler maneja las peticiones HTTP del motor de stock (protegido).
type StockHandler struct {
	ledger  *stock.LedgerUseCase
	history *stock.HistoryUseCase
	export  *stock.ExportUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.LedgerUseCase, history *stock.HistoryUseCase, export *stock.ExportUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, history: history, export: export}
}

// actor extrae la identidad autenticada del contexto.
func actor(c *fiber.Ctx) (stock.Actor, bool) {
	a := stock.Actor{ID: GetActorID(c), Name: GetActorName(c)}
	return a, a.ID != ""
}

// mapError traduce errores de dominio a respuestas HTTP.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem, ubicación o registro no encontrado"})
	case errors.Is(err, domain.ErrLockTimeout):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "no se pudo bloquear el registro a tiempo, reintente"})
	case errors.Is(err, domain.ErrInvariant):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INVARIANT", Message: "inconsistencia detectada, la operación fue revertida"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// Add godoc
// @Summary      Agregar stock a una ubicación
// @Description  Suma cantidad en la ubicación indicada; crea el registro si no
//
//	existe. unit_price y total_price son excluyentes, el que falte
//	se deriva.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddStockRequest  true  "item_id, location_id, quantity, unit_price|total_price, lot_id, comment"
// @Success      201   {object}  dto.AddStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/add [post]
func (h *StockHandler) Add(c *fiber.Ctx) error {
	act, ok := actor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.ledger.Add(c.Context(), act, stock.AddInput{
		ItemID:     in.ItemID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		TotalPrice: in.TotalPrice,
		LotID:      in.LotID,
		Comment:    in.Comment,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AddStockResponse{
		Entry: dto.NewLedgerEntryResponse(result.Entry),
	})
}

// Remove godoc
// @Summary      Retirar stock de una ubicación
// @Description  Resta cantidad; si excede lo disponible se capea (capped=true)
//
//	y sigue siendo éxito. La fila se elimina al llegar a cero.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RemoveStockRequest  true  "item_id, location_id, quantity, comment"
// @Success      200   {object}  dto.RemoveStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/remove [post]
func (h *StockHandler) Remove(c *fiber.Ctx) error {
	act, ok := actor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RemoveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.ledger.Remove(c.Context(), act, stock.RemoveInput{
		ItemID:     in.ItemID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Comment:    in.Comment,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.RemoveStockResponse{
		AppliedQuantity: result.AppliedQuantity,
		Capped:          result.Capped,
		LocationDeleted: result.LocationDeleted,
		Entry:           dto.NewLedgerEntryResponse(result.Entry),
	})
}

// Move godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  Mueve cantidad de una ubicación a otra en una sola transacción.
//
//	Si el destino ya tiene stock, fusiona y recalcula el costo como
//	promedio ponderado.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveStockRequest  true  "item_id, from_location_id, to_location_id, quantity, comment"
// @Success      200   {object}  dto.MoveStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/move [post]
func (h *StockHandler) Move(c *fiber.Ctx) error {
	act, ok := actor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.MoveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.ledger.Move(c.Context(), act, stock.MoveInput{
		ItemID:         in.ItemID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Comment:        in.Comment,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.MoveStockResponse{
		AppliedQuantity: result.AppliedQuantity,
		Capped:          result.Capped,
		SourceDeleted:   result.SourceDeleted,
		DestCreated:     result.DestCreated,
		Entry:           dto.NewLedgerEntryResponse(result.Entry),
	})
}

// History godoc
// @Summary      Historial paginado de un ítem
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        itemId      path   string  true   "ID del ítem"
// @Param        page        query  int     false  "Página (desde 1)"
// @Param        page_size   query  int     false  "Entries por página (max 100)"
// @Param        sort_by     query  string  false  "timestamp | quantity_change | operation_type | actor_name"
// @Param        sort_order  query  string  false  "asc | desc"
// @Success      200  {object}  dto.StockHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{itemId}/history [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	result, err := h.history.Query(c.Params("itemId"), q)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(result)
}

// Export godoc
// @Summary      Exportar el historial completo de un ítem
// @Description  Serializa el historial sin paginar, del más reciente al más
//
//	antiguo, en el formato pedido.
//
// @Tags         stock
// @Security     Bearer
// @Produce      octet-stream
// @Param        itemId  path   string  true   "ID del ítem"
// @Param        format  query  string  false  "csv | xlsx | json | pdf (default csv)"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{itemId}/history/export [get]
func (h *StockHandler) Export(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "csv"))
	result, err := h.export.Export(c.Params("itemId"), format)
	if err != nil {
		return mapError(c, err)
	}
	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.FileName))
	return c.Send(result.Content)
}

// Levels godoc
// @Summary      Posiciones actuales de un ítem por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{itemId}/levels [get]
func (h *StockHandler) Levels(c *fiber.Ctx) error {
	levels, err := h.history.Levels(c.Params("itemId"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(levels)
}
