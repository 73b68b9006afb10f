package main

import (
	"context"
	"fmt"

	"tutorhub/internal/activity"
	"tutorhub/internal/database"
	"tutorhub/internal/repository"
	"tutorhub/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create an account, typically the first administrator",
	Example: `  tutorhub users create --username admin --email admin@example.com --password 'S3cure-pass' --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return err
		}

		recorder := activity.NewRecorder(logger, repository.NewActivityRepository(db))
		users := service.NewUserService(repository.NewUserRepository(db), repository.NewSessionRepository(db), recorder, logger)

		user, err := users.CreateUser(context.Background(), 0, service.NewUser{
			Username: username,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return err
		}
		logger.Info("user created", zap.Int64("id", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)

	usersCreateCmd.Flags().String("username", "", "login name")
	usersCreateCmd.Flags().String("email", "", "email address")
	usersCreateCmd.Flags().String("password", "", "initial password, at least 8 characters")
	usersCreateCmd.Flags().String("role", "admin", "admin, tutor or student")
	_ = usersCreateCmd.MarkFlagRequired("username")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")
}
