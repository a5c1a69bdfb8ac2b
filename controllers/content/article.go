package contentController

import (
	"encoding/json"
	"errors"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	"fillop/models"
	"fillop/utils"
	"fillop/validators"
	contentValidator "fillop/validators/content"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return datatypes.JSON(raw)
}

func findArticle(db *gorm.DB, id uint, publishedOnly bool) (*models.Article, error) {
	var article models.Article
	q := db.Where("id = ? AND is_deleted = ?", id, false)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if err := q.First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func articleNotFound(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Article not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch article!", nil)
}

func listArticles(c *fiber.Ctx, publishedOnly bool) error {
	q := c.Locals("listQuery").(*validators.ListQuery)

	scope := database.Database.Db.Model(&models.Article{}).Where("is_deleted = ?", false)
	if publishedOnly {
		scope = scope.Where("is_published = ?", true)
	}
	if q.Search != "" {
		scope = scope.Where("LOWER(title) LIKE ?", utils.LikePattern(q.Search))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch articles!", nil)
	}
	articles := []models.Article{}
	if err := scope.Order("published_at DESC, created_at DESC, id DESC").
		Offset(q.Offset).Limit(q.Limit).Find(&articles).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch articles!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Articles fetched successfully!", utils.ListResponse(articles, total, q.Offset, q.Limit))
}

func ListArticles(c *fiber.Ctx) error { return listArticles(c, false) }

func PublicArticles(c *fiber.Ctx) error { return listArticles(c, true) }

func GetArticle(c *fiber.Ctx) error {
	article, err := findArticle(database.Database.Db, c.Locals("id").(uint), false)
	if err != nil {
		return articleNotFound(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Article fetched successfully!", article)
}

func PublicArticle(c *fiber.Ctx) error {
	article, err := findArticle(database.Database.Db, c.Locals("id").(uint), true)
	if err != nil {
		return articleNotFound(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Article fetched successfully!", article)
}

func CreateArticle(c *fiber.Ctx) error {
	reqData := c.Locals("validatedArticle").(*contentValidator.ArticleRequest)

	image, err := utils.StoreAsset(c, "image", reqData.Image, "articles", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}

	article := models.Article{
		Title:       reqData.Title,
		Summary:     reqData.Summary,
		Body:        reqData.Body,
		Image:       image,
		Tags:        jsonList(reqData.Tags),
		AuthorID:    c.Locals("userId").(uint),
		IsPublished: reqData.IsPublished,
	}
	if article.IsPublished {
		now := time.Now()
		article.PublishedAt = &now
	}
	if err := database.Database.Db.Create(&article).Error; err != nil {
		logger.Log.Error("failed to create article", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create article!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Article created successfully!", article)
}

// UpdateArticle replaces the article fields. An empty image keeps the current one.
func UpdateArticle(c *fiber.Ctx) error {
	reqData := c.Locals("validatedArticle").(*contentValidator.ArticleRequest)
	db := database.Database.Db

	article, err := findArticle(db, c.Locals("id").(uint), false)
	if err != nil {
		return articleNotFound(c, err)
	}

	image, err := utils.StoreAsset(c, "image", reqData.Image, "articles", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}

	updates := map[string]interface{}{
		"title":        reqData.Title,
		"summary":      reqData.Summary,
		"body":         reqData.Body,
		"tags":         jsonList(reqData.Tags),
		"is_published": reqData.IsPublished,
	}
	if image != "" {
		updates["image"] = image
	}
	if reqData.IsPublished && article.PublishedAt == nil {
		updates["published_at"] = time.Now()
	}
	if err := db.Model(article).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update article!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Article updated successfully!", article)
}

func DeleteArticle(c *fiber.Ctx) error {
	db := database.Database.Db
	article, err := findArticle(db, c.Locals("id").(uint), false)
	if err != nil {
		return articleNotFound(c, err)
	}
	if err := db.Model(article).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete article!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Article deleted successfully!", nil)
}
