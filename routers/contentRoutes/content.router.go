package contentRoutes

import (
	contentController "fillop/controllers/content"
	"fillop/validators"
	contentValidator "fillop/validators/content"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminContentRoutes(admin fiber.Router) {
	articles := admin.Group("/articles")
	articles.Get("/", validators.List(), contentController.ListArticles)
	articles.Post("/", contentValidator.Article(), contentController.CreateArticle)
	articles.Get("/:id", validators.IDParams("id"), contentController.GetArticle)
	articles.Put("/:id", validators.IDParams("id"), contentValidator.Article(), contentController.UpdateArticle)
	articles.Delete("/:id", validators.IDParams("id"), contentController.DeleteArticle)

	services := admin.Group("/services")
	services.Get("/", validators.List(), contentController.ListServices)
	services.Post("/", contentValidator.Service(), contentController.CreateService)
	services.Get("/:id", validators.IDParams("id"), contentController.GetService)
	services.Put("/:id", validators.IDParams("id"), contentValidator.Service(), contentController.UpdateService)
	services.Delete("/:id", validators.IDParams("id"), contentController.DeleteService)
}

func SetupPublicContentRoutes(router fiber.Router) {
	router.Get("/articles", validators.List(), contentController.PublicArticles)
	router.Get("/articles/:id", validators.IDParams("id"), contentController.PublicArticle)
	router.Get("/services", validators.List(), contentController.PublicServices)
}
