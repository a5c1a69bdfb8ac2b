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

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errCourseInPath = errors.New("course already in learning path")

func findLearningPath(tx *gorm.DB, id uint) (*courseModels.LearningPath, error) {
	var path courseModels.LearningPath
	if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&path).Error; err != nil {
		return nil, wrapNotFound(err, "Learning path")
	}
	return &path, nil
}

// loadPathDetail returns the path with its categories and courses in path order.
func loadPathDetail(tx *gorm.DB, id uint, publishedOnly bool) (*courseModels.LearningPath, error) {
	var path courseModels.LearningPath
	q := tx.Preload("Categories", liveCategories).Where("id = ? AND is_deleted = ?", id, false)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if err := q.First(&path).Error; err != nil {
		return nil, wrapNotFound(err, "Learning path")
	}

	courses := tx.Preload("Categories", liveCategories).
		Joins("JOIN learning_path_courses lpc ON lpc.course_id = courses.id AND lpc.deleted_at IS NULL").
		Where("lpc.learning_path_id = ? AND courses.is_deleted = ?", id, false)
	if publishedOnly {
		courses = courses.Where("courses.is_published = ?", true)
	}
	path.Courses = []courseModels.Course{}
	if err := courses.Order("lpc.order_index ASC, lpc.id ASC").Find(&path.Courses).Error; err != nil {
		return nil, err
	}
	return &path, nil
}

func appendPathCourse(tx *gorm.DB, pathID, courseID uint) error {
	var course courseModels.Course
	if err := tx.Select("id").Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return wrapNotFound(err, "Course")
	}
	var count int64
	if err := tx.Model(&courseModels.LearningPathCourse{}).
		Where("learning_path_id = ? AND course_id = ?", pathID, courseID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errCourseInPath
	}
	pos, err := pathCourseList.nextPosition(tx, pathID)
	if err != nil {
		return err
	}
	return tx.Create(&courseModels.LearningPathCourse{
		LearningPathID: pathID,
		CourseID:       courseID,
		OrderIndex:     pos,
	}).Error
}

func pathError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, errCourseInPath) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course is already part of this learning path!", nil)
	}
	return respondError(c, err, action)
}

func ListLearningPaths(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(*validators.ListQuery)
	db := database.Database.Db

	scope := db.Model(&courseModels.LearningPath{}).Where("is_deleted = ?", false)
	if q.Search != "" {
		scope = scope.Where("LOWER(title) LIKE ?", utils.LikePattern(q.Search))
	}
	if q.Category != 0 {
		scope = scope.Where("id IN (?)", db.Table("learning_path_categories").Select("learning_path_id").Where("category_id = ?", q.Category))
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch learning paths!", nil)
	}

	paths := []courseModels.LearningPath{}
	if err := scope.Preload("Categories", liveCategories).
		Order("created_at DESC, id DESC").Offset(q.Offset).Limit(q.Limit).
		Find(&paths).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch learning paths!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning paths fetched successfully!", utils.ListResponse(paths, total, q.Offset, q.Limit))
}

func CreateLearningPath(c *fiber.Ctx) error {
	a := currentActor(c)
	reqData := c.Locals("validatedLearningPath").(*courseValidator.LearningPathRequest)

	image, err := utils.StoreAsset(c, "image", reqData.Image, "learning-paths", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}

	difficulty := reqData.Difficulty
	if difficulty == "" {
		difficulty = courseModels.DifficultyBeginner
	}
	path := courseModels.LearningPath{
		Title:         reqData.Title,
		Description:   reqData.Description,
		Image:         image,
		Difficulty:    difficulty,
		EstimatedTime: reqData.EstimatedTime,
		IsPublished:   reqData.IsPublished,
		AuthorID:      a.ID,
	}

	var detail *courseModels.LearningPath
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		categories, err := loadCategories(tx, reqData.CategoryIDs)
		if err != nil {
			return err
		}
		if err := tx.Omit("Categories").Create(&path).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			if err := tx.Model(&path).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		for _, courseID := range reqData.CourseIDs {
			if err := appendPathCourse(tx, path.ID, courseID); err != nil {
				return err
			}
		}
		detail, err = loadPathDetail(tx, path.ID, false)
		return err
	})
	if err != nil {
		return pathError(c, err, "create learning path")
	}

	logger.Log.Info("learning path created", "learning_path_id", path.ID, "courses", len(reqData.CourseIDs))
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Learning path created successfully!", detail)
}

func GetLearningPath(c *fiber.Ctx) error {
	path, err := loadPathDetail(database.Database.Db, c.Locals("id").(uint), false)
	if err != nil {
		return respondError(c, err, "fetch learning path")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning path fetched successfully!", path)
}

func UpdateLearningPath(c *fiber.Ctx) error {
	pathID := c.Locals("id").(uint)
	reqData := c.Locals("validatedLearningPathUpdate").(*courseValidator.LearningPathUpdateRequest)

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Difficulty != nil && *reqData.Difficulty != "" {
		updates["difficulty"] = *reqData.Difficulty
	}
	if reqData.EstimatedTime != nil {
		updates["estimated_time"] = *reqData.EstimatedTime
	}
	if reqData.IsPublished != nil {
		updates["is_published"] = *reqData.IsPublished
	}
	imageValue := ""
	if reqData.Image != nil {
		imageValue = *reqData.Image
	}
	image, err := utils.StoreAsset(c, "image", imageValue, "learning-paths", utils.ImageTypes)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"image": err.Error()})
	}
	if reqData.Image != nil || image != "" {
		updates["image"] = image
	}

	var detail *courseModels.LearningPath
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		path, err := findLearningPath(tx, pathID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(path).Updates(updates).Error; err != nil {
				return err
			}
		}
		if reqData.CategoryIDs != nil {
			categories, err := loadCategories(tx, *reqData.CategoryIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(path).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		detail, err = loadPathDetail(tx, pathID, false)
		return err
	})
	if err != nil {
		return respondError(c, err, "update learning path")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning path updated successfully!", detail)
}

// DeleteLearningPath removes the path and every course that belongs to no
// other learning path.
func DeleteLearningPath(c *fiber.Ctx) error {
	pathID := c.Locals("id").(uint)

	removed := []uint{}
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		path, err := findLearningPath(tx, pathID)
		if err != nil {
			return err
		}

		var courseIDs []uint
		if err := tx.Model(&courseModels.LearningPathCourse{}).
			Where("learning_path_id = ?", pathID).Pluck("course_id", &courseIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("learning_path_id = ?", pathID).Delete(&courseModels.LearningPathCourse{}).Error; err != nil {
			return err
		}

		livePaths := tx.Model(&courseModels.LearningPath{}).Select("id").Where("is_deleted = ? AND id <> ?", false, pathID)
		for _, courseID := range courseIDs {
			var shared int64
			if err := tx.Model(&courseModels.LearningPathCourse{}).
				Where("course_id = ? AND learning_path_id IN (?)", courseID, livePaths).
				Count(&shared).Error; err != nil {
				return err
			}
			if shared > 0 {
				continue
			}
			if err := deleteCourseTx(tx, courseID); err != nil {
				return err
			}
			removed = append(removed, courseID)
		}

		if err := tx.Model(path).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Model(path).Update("is_deleted", true).Error
	})
	if err != nil {
		return respondError(c, err, "delete learning path")
	}

	logger.Log.Info("learning path deleted", "learning_path_id", pathID, "deleted_courses", len(removed))
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learning path deleted successfully!", fiber.Map{
		"deleted_course_ids": removed,
	})
}

func AddPathCourse(c *fiber.Ctx) error {
	pathID := c.Locals("id").(uint)
	reqData := c.Locals("validatedPathCourse").(*courseValidator.PathCourseRequest)

	var detail *courseModels.LearningPath
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findLearningPath(tx, pathID); err != nil {
			return err
		}
		if err := appendPathCourse(tx, pathID, reqData.CourseID); err != nil {
			return err
		}
		var err error
		detail, err = loadPathDetail(tx, pathID, false)
		return err
	})
	if err != nil {
		return pathError(c, err, "add course")
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course added to learning path!", detail)
}

func RemovePathCourse(c *fiber.Ctx) error {
	pathID := c.Locals("id").(uint)
	courseID := c.Locals("courseId").(uint)

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findLearningPath(tx, pathID); err != nil {
			return err
		}
		res := tx.Where("learning_path_id = ? AND course_id = ?", pathID, courseID).Delete(&courseModels.LearningPathCourse{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotSibling
		}
		return pathCourseList.compact(tx, pathID)
	})
	if err != nil {
		return respondError(c, err, "remove course")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from learning path!", nil)
}

// MovePathCourseUp swaps a course with the one before it in the path.
func MovePathCourseUp(c *fiber.Ctx) error {
	pathID := c.Locals("id").(uint)
	courseID := c.Locals("courseId").(uint)

	var moved bool
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if _, err := findLearningPath(tx, pathID); err != nil {
			return err
		}
		var err error
		moved, err = pathCourseList.moveUp(tx, pathID, courseID)
		return err
	})
	if err != nil {
		return respondError(c, err, "move course")
	}

	message := "Course moved up successfully!"
	if !moved {
		message = "Course is already first."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{"moved": moved})
}
