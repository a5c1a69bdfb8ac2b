package contentController

import (
	"errors"
	"fillop/database"
	"fillop/middleware"
	"fillop/models"
	"fillop/utils"
	"fillop/validators"
	contentValidator "fillop/validators/content"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func findService(db *gorm.DB, id uint) (*models.Service, error) {
	var service models.Service
	if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func serviceNotFound(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Service not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch service!", nil)
}

func listServices(c *fiber.Ctx, publishedOnly bool) error {
	q := c.Locals("listQuery").(*validators.ListQuery)

	scope := database.Database.Db.Model(&models.Service{}).Where("is_deleted = ?", false)
	if publishedOnly {
		scope = scope.Where("is_published = ?", true)
	}
	if q.Search != "" {
		scope = scope.Where("LOWER(name) LIKE ?", utils.LikePattern(q.Search))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch services!", nil)
	}
	services := []models.Service{}
	if err := scope.Order("order_index ASC, id ASC").Offset(q.Offset).Limit(q.Limit).Find(&services).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch services!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Services fetched successfully!", utils.ListResponse(services, total, q.Offset, q.Limit))
}

func ListServices(c *fiber.Ctx) error { return listServices(c, false) }

func PublicServices(c *fiber.Ctx) error { return listServices(c, true) }

func GetService(c *fiber.Ctx) error {
	service, err := findService(database.Database.Db, c.Locals("id").(uint))
	if err != nil {
		return serviceNotFound(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Service fetched successfully!", service)
}

func CreateService(c *fiber.Ctx) error {
	reqData := c.Locals("validatedService").(*contentValidator.ServiceRequest)

	icon, err := utils.StoreAsset(c, "icon", reqData.Icon, "services", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"icon": err.Error()})
	}

	service := models.Service{
		Name:        reqData.Name,
		Description: reqData.Description,
		Icon:        icon,
		Features:    jsonList(reqData.Features),
		OrderIndex:  reqData.OrderIndex,
		IsPublished: reqData.IsPublished,
	}
	if err := database.Database.Db.Create(&service).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create service!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Service created successfully!", service)
}

func UpdateService(c *fiber.Ctx) error {
	reqData := c.Locals("validatedService").(*contentValidator.ServiceRequest)
	db := database.Database.Db

	service, err := findService(db, c.Locals("id").(uint))
	if err != nil {
		return serviceNotFound(c, err)
	}

	icon, err := utils.StoreAsset(c, "icon", reqData.Icon, "services", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"icon": err.Error()})
	}

	updates := map[string]interface{}{
		"name":         reqData.Name,
		"description":  reqData.Description,
		"features":     jsonList(reqData.Features),
		"order_index":  reqData.OrderIndex,
		"is_published": reqData.IsPublished,
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if err := db.Model(service).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update service!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Service updated successfully!", service)
}

func DeleteService(c *fiber.Ctx) error {
	db := database.Database.Db
	service, err := findService(db, c.Locals("id").(uint))
	if err != nil {
		return serviceNotFound(c, err)
	}
	if err := db.Model(service).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete service!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Service deleted successfully!", nil)
}
