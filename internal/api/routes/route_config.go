package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kazuki11111/expiry-tracker/internal/api/handlers"
	"github.com/kazuki11111/expiry-tracker/internal/middleware"
)

type Config struct {
	App                 *fiber.App
	ProductHandler      handlers.ProductHandler
	ScanHandler         handlers.ScanHandler
	SettingsHandler     handlers.SettingsHandler
	MemoHandler         handlers.MemoHandler
	NotificationHandler handlers.NotificationHandler
	Middleware          middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.RecoverMiddleware())
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Products()
	c.Scans()
	c.Settings()
	c.Memos()
	c.Notifications()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Post("/api/ocr", c.ScanHandler.Recognize)
	c.App.Get("/api/v1/categories", c.ProductHandler.GetCategories)
}

func (c *Config) Products() {
	products := c.App.Group("/api/v1/products")
	{
		products.Get("", c.ProductHandler.GetProducts)
		products.Post("", c.ProductHandler.AddProduct)
		products.Get("/stream", c.ProductHandler.StreamProducts)
		products.Delete("/purchase-date/:date", c.ProductHandler.DeleteByPurchaseDate)
		products.Get("/:id", c.ProductHandler.GetProduct)
		products.Put("/:id", c.ProductHandler.UpdateProduct)
		products.Delete("/:id", c.ProductHandler.DeleteProduct)
		products.Post("/:id/toggle-consumed", c.ProductHandler.ToggleConsumed)
	}
}

func (c *Config) Scans() {
	scans := c.App.Group("/api/v1/scans")
	{
		scans.Post("", c.ScanHandler.StartScan)
		scans.Get("/:id", c.ScanHandler.GetSession)
		scans.Delete("/:id", c.ScanHandler.DiscardSession)
		scans.Put("/:id/purchase-date", c.ScanHandler.SetPurchaseDate)
		scans.Put("/:id/items/:index", c.ScanHandler.UpdateItem)
		scans.Delete("/:id/items/:index", c.ScanHandler.RemoveItem)
		scans.Post("/:id/commit", c.ScanHandler.Commit)
	}
}

func (c *Config) Settings() {
	settings := c.App.Group("/api/v1/settings")
	settings.Get("", c.SettingsHandler.GetSettings)
	settings.Put("", c.SettingsHandler.UpdateSettings)
}

func (c *Config) Memos() {
	memos := c.App.Group("/api/v1/memos")
	{
		memos.Get("", c.MemoHandler.GetMemos)
		memos.Post("", c.MemoHandler.AddMemo)
		memos.Get("/stream", c.MemoHandler.StreamMemos)
		memos.Put("/:id", c.MemoHandler.UpdateMemo)
		memos.Delete("/:id", c.MemoHandler.DeleteMemo)
	}
}

func (c *Config) Notifications() {
	c.App.Post("/api/v1/notifications/check", c.NotificationHandler.CheckNow)
}
