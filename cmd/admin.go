package cmd

import (
	"errors"
	"fillop/config"
	"fillop/database"
	"fillop/logger"
	"fillop/models"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := bootstrap(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := database.Migrate(database.Database.Db); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var createAdminCommand = &cobra.Command{
	Use:   "create-admin [email] [password] [name]",
	Short: "Create an active administrator account",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Printf("You must provide an email and a password.\n\n")
			cmd.Usage()
			os.Exit(1)
		}
		name := "Administrator"
		if len(args) > 2 {
			name = strings.Join(args[2:], " ")
		}

		if _, err := bootstrap(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		user, err := CreateAdmin(database.Database.Db, args[0], args[1], name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Created admin %s (id %d)\n", user.Email, user.ID)
	},
}

// CreateAdmin stores a verified ACTIVE admin. It refuses an email that is
// already registered.
func CreateAdmin(db *gorm.DB, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return nil, errors.New("email is required and the password needs at least 6 characters")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("user %s already exists", email)
	}

	rounds := bcrypt.DefaultCost
	if config.AppConfig != nil && config.AppConfig.SaltRound > 0 {
		rounds = config.AppConfig.SaltRound
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), rounds)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:            name,
		Email:           email,
		Password:        string(hashed),
		Role:            models.RoleAdmin,
		Status:          models.StatusActive,
		IsEmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	logger.Log.Info("admin created", "user_id", user.ID)
	return &user, nil
}
