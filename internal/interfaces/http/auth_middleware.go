package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/pkg/jwt"
)

// Locals keys para la identidad del actor en Fiber.
const (
	LocalActorID   = "actor_id"
	LocalActorName = "actor_name"
	LocalRole      = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae la identidad del actor a
// c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		actorID, actorName, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalActorID, actorID)
		c.Locals(LocalActorName, actorName)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// RequireRole exige que el rol del token esté en la lista. Va después de
// AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetActorID devuelve el ActorID del contexto (después del middleware de auth).
func GetActorID(c *fiber.Ctx) string {
	v := c.Locals(LocalActorID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetActorName devuelve el nombre del actor del contexto.
func GetActorName(c *fiber.Ctx) string {
	v := c.Locals(LocalActorName)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole devuelve el rol del actor del contexto.
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
