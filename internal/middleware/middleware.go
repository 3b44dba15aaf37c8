package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kazuki11111/expiry-tracker/internal/utils"
)

type Middleware interface {
	CORSMiddleware() fiber.Handler
	RecoverMiddleware() fiber.Handler
}

type middleware struct {
	allowOrigins string
}

func NewMiddleware() Middleware {
	return &middleware{allowOrigins: utils.GetConfig("CORS_ORIGINS")}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	origins := strings.TrimSpace(m.allowOrigins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodOptions,
		}, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
	})
}

func (m *middleware) RecoverMiddleware() fiber.Handler {
	return recover.New(recover.Config{EnableStackTrace: true})
}
