package controllers

import (
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	courseModels "fillop/models/course"
	"fillop/utils"
	courseValidator "fillop/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// allowedUploads lists the mime types a module file of contentType may have.
// nil means the type carries no file.
func allowedUploads(contentType string) []string {
	switch contentType {
	case courseModels.ContentPDF:
		return []string{"application/pdf"}
	case courseModels.ContentVideo:
		return utils.VideoTypes
	case courseModels.ContentPPT, courseModels.ContentDOCX:
		return utils.DocumentTypes
	default:
		return nil
	}
}

// resolveContent stores the module file (multipart "file" or data URL) and
// returns the content URL to persist.
func resolveContent(c *fiber.Ctx, contentType, value string) (string, map[string]string) {
	allowed := allowedUploads(contentType)
	if allowed == nil {
		return value, nil
	}
	url, err := utils.StoreAsset(c, "file", value, "modules", allowed)
	if err != nil {
		return "", map[string]string{"content_url": err.Error()}
	}
	if url == "" {
		return "", map[string]string{"content_url": "A file or content URL is required for " + contentType + " modules!"}
	}
	return url, nil
}

func ensureAssessment(tx *gorm.DB, module *courseModels.Module) error {
	var count int64
	if err := tx.Model(&courseModels.Assessment{}).Where("module_id = ?", module.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	assessment := courseModels.Assessment{
		ModuleID:    module.ID,
		Title:       module.Title,
		Description: module.Description,
		Duration:    module.Duration,
	}
	return tx.Create(&assessment).Error
}

// CreateModule appends a module to a course
func CreateModule(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	reqData := c.Locals("validatedModule").(*courseValidator.ModuleRequest)

	contentURL, errs := resolveContent(c, reqData.ContentType, reqData.ContentURL)
	if errs != nil {
		return middleware.ValidationErrorResponse(c, errs)
	}

	module := courseModels.Module{
		CourseID:    courseID,
		Title:       reqData.Title,
		Description: reqData.Description,
		ContentType: reqData.ContentType,
		ContentURL:  contentURL,
		TextContent: reqData.TextContent,
		Duration:    reqData.Duration,
		IsPublished: reqData.IsPublished,
	}

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, a, courseID); err != nil {
			return err
		}
		pos, err := moduleList.nextPosition(tx, courseID)
		if err != nil {
			return err
		}
		module.OrderIndex = pos
		if err := tx.Create(&module).Error; err != nil {
			return err
		}
		if module.ContentType == courseModels.ContentAssessment {
			if err := ensureAssessment(tx, &module); err != nil {
				return err
			}
		}
		return recomputeCourseDuration(tx, courseID)
	})
	if err != nil {
		return respondError(c, err, "create module")
	}

	logger.Log.Info("module created", "course_id", courseID, "module_id", module.ID, "position", module.OrderIndex)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func moduleInCourse(tx *gorm.DB, a actor, courseID, moduleID uint) (*courseModels.Module, error) {
	module, _, err := findModule(tx, a, moduleID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, notFoundError("Module")
	}
	return module, nil
}

// GetModule returns a single module
func GetModule(c *fiber.Ctx) error {
	a := currentActor(c)
	module, err := moduleInCourse(database.Database.Db, a, c.Locals("id").(uint), c.Locals("moduleId").(uint))
	if err != nil {
		return respondError(c, err, "fetch module")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module fetched successfully!", module)
}

// UpdateModule updates an existing module
func UpdateModule(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	moduleID := c.Locals("moduleId").(uint)
	reqData := c.Locals("validatedModuleUpdate").(*courseValidator.ModuleUpdateRequest)

	var module *courseModels.Module
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var err error
		module, err = moduleInCourse(tx, a, courseID, moduleID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if reqData.Title != nil {
			updates["title"] = *reqData.Title
		}
		if reqData.Description != nil {
			updates["description"] = *reqData.Description
		}
		if reqData.TextContent != nil {
			updates["text_content"] = *reqData.TextContent
		}
		if reqData.Duration != nil {
			updates["duration"] = *reqData.Duration
		}
		if reqData.IsPublished != nil {
			updates["is_published"] = *reqData.IsPublished
		}

		contentType := module.ContentType
		if reqData.ContentType != nil {
			contentType = *reqData.ContentType
			updates["content_type"] = contentType
		}
		_, fileErr := c.FormFile("file")
		if reqData.ContentURL != nil || fileErr == nil || contentType != module.ContentType {
			value := module.ContentURL
			if reqData.ContentURL != nil {
				value = *reqData.ContentURL
			} else if allowedUploads(contentType) == nil {
				value = ""
			}
			url, errs := resolveContent(c, contentType, value)
			if errs != nil {
				return validationError(errs)
			}
			updates["content_url"] = url
		}

		if len(updates) > 0 {
			if err := tx.Model(module).Updates(updates).Error; err != nil {
				return err
			}
		}
		if module.ContentType == courseModels.ContentAssessment {
			if err := ensureAssessment(tx, module); err != nil {
				return err
			}
		}
		return recomputeCourseDuration(tx, courseID)
	})
	if verr, ok := err.(validationError); ok {
		return middleware.ValidationErrorResponse(c, verr)
	}
	if err != nil {
		return respondError(c, err, "update module")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// DeleteModule removes a module and closes the gap in the course order
func DeleteModule(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	moduleID := c.Locals("moduleId").(uint)

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		module, err := moduleInCourse(tx, a, courseID, moduleID)
		if err != nil {
			return err
		}
		if err := deleteAssessmentTx(tx, module.ID); err != nil {
			return err
		}
		if err := tx.Model(module).Update("is_deleted", true).Error; err != nil {
			return err
		}
		if err := moduleList.compact(tx, courseID); err != nil {
			return err
		}
		return recomputeCourseDuration(tx, courseID)
	})
	if err != nil {
		return respondError(c, err, "delete module")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

// MoveModuleUp swaps a module with the one before it. Moving the first module
// is accepted and changes nothing.
func MoveModuleUp(c *fiber.Ctx) error {
	a := currentActor(c)
	courseID := c.Locals("id").(uint)
	moduleID := c.Locals("moduleId").(uint)

	var moved bool
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, a, courseID); err != nil {
			return err
		}
		var err error
		moved, err = moduleList.moveUp(tx, courseID, moduleID)
		return err
	})
	if err != nil {
		return respondError(c, err, "move module")
	}

	message := "Module moved up successfully!"
	if !moved {
		message = "Module is already first."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{"moved": moved})
}

// validationError carries field errors out of a transaction closure.
type validationError map[string]string

func (v validationError) Error() string { return "validation failed" }
