package controllers

import (
	"errors"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	courseModels "fillop/models/course"
	"fillop/utils"
	"fillop/validators"
	courseValidator "fillop/validators/course"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errCategoryExists = errors.New("category name already in use")

func findCategory(tx *gorm.DB, id uint) (*courseModels.Category, error) {
	var category courseModels.Category
	if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&category).Error; err != nil {
		return nil, wrapNotFound(err, "Category")
	}
	return &category, nil
}

// ensureCategoryName rejects a name already used by another live category,
// ignoring case.
func ensureCategoryName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	err := tx.Model(&courseModels.Category{}).
		Where("LOWER(name) = ? AND is_deleted = ? AND id <> ?", strings.ToLower(name), false, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errCategoryExists
	}
	return nil
}

func categoryError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, errCategoryExists) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A category with this name already exists!", nil)
	}
	return respondError(c, err, action)
}

func ListCategories(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(*validators.ListQuery)

	scope := database.Database.Db.Model(&courseModels.Category{}).Where("is_deleted = ?", false)
	if q.Search != "" {
		scope = scope.Where("LOWER(name) LIKE ?", utils.LikePattern(q.Search))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch categories!", nil)
	}
	categories := []courseModels.Category{}
	if err := scope.Order("name ASC").Offset(q.Offset).Limit(q.Limit).Find(&categories).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch categories!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories fetched successfully!", utils.ListResponse(categories, total, q.Offset, q.Limit))
}

func CreateCategory(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCategory").(*courseValidator.CategoryRequest)

	category := courseModels.Category{Name: reqData.Name, Description: reqData.Description}
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryName(tx, reqData.Name, 0); err != nil {
			return err
		}
		return tx.Create(&category).Error
	})
	if err != nil {
		return categoryError(c, err, "create category")
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Category created successfully!", category)
}

func UpdateCategory(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)
	reqData := c.Locals("validatedCategory").(*courseValidator.CategoryRequest)

	var category *courseModels.Category
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var err error
		if category, err = findCategory(tx, id); err != nil {
			return err
		}
		if err := ensureCategoryName(tx, reqData.Name, id); err != nil {
			return err
		}
		return tx.Model(category).Updates(map[string]interface{}{
			"name":        reqData.Name,
			"description": reqData.Description,
		}).Error
	})
	if err != nil {
		return categoryError(c, err, "update category")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Category updated successfully!", category)
}

func DeleteCategory(c *fiber.Ctx) error {
	id := c.Locals("id").(uint)

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM course_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM learning_path_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(category).Update("is_deleted", true).Error
	})
	if err != nil {
		return respondError(c, err, "delete category")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Category deleted successfully!", nil)
}

// repointCategory moves join rows from sources onto target in one join table,
// skipping owners already linked to target.
func repointCategory(tx *gorm.DB, table, ownerCol string, sources []uint, target uint) error {
	insert := "INSERT INTO " + table + " (" + ownerCol + ", category_id) " +
		"SELECT DISTINCT src." + ownerCol + ", ? FROM " + table + " src " +
		"WHERE src.category_id IN ? AND src." + ownerCol + " NOT IN " +
		"(SELECT t." + ownerCol + " FROM " + table + " t WHERE t.category_id = ?)"
	if err := tx.Exec(insert, target, sources, target).Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM "+table+" WHERE category_id IN ?", sources).Error
}

// MergeCategories folds every source category into the target and removes the
// sources.
func MergeCategories(c *fiber.Ctx) error {
	reqData := c.Locals("validatedMerge").(*courseValidator.MergeCategoriesRequest)

	var target *courseModels.Category
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var err error
		if target, err = findCategory(tx, reqData.TargetID); err != nil {
			return err
		}
		if _, err := loadCategories(tx, reqData.SourceIDs); err != nil {
			return err
		}
		if err := repointCategory(tx, "course_categories", "course_id", reqData.SourceIDs, target.ID); err != nil {
			return err
		}
		if err := repointCategory(tx, "learning_path_categories", "learning_path_id", reqData.SourceIDs, target.ID); err != nil {
			return err
		}
		return tx.Model(&courseModels.Category{}).
			Where("id IN ?", reqData.SourceIDs).
			Update("is_deleted", true).Error
	})
	if err != nil {
		return respondError(c, err, "merge categories")
	}

	logger.Log.Info("categories merged", "target_id", target.ID, "sources", reqData.SourceIDs)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories merged successfully!", target)
}
