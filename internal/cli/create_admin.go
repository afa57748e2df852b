package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

// CreateAdminCommand bootstraps an active, verified administrator account.
type CreateAdminCommand struct {
	Email        string
	FullName     string
	Password     string
	DatabasePath string
	BcryptCost   int
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Email, "email", "", "Administrator email (required)")
	fs.StringVar(&cmd.FullName, "name", "Administrator", "Full name")
	fs.StringVar(&cmd.Password, "password", os.Getenv("LMS_ADMIN_PASSWORD"), "Password (defaults to $LMS_ADMIN_PASSWORD)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", 12, "bcrypt cost factor")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -email admin@example.com -password 's3cret-pass'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  LMS_ADMIN_PASSWORD=s3cret-pass %s create-admin -email admin@example.com -db ./lms.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		fs.Usage()
		return errors.New("email is required")
	}
	if cmd.Password == "" {
		fs.Usage()
		return errors.New("password is required")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	if err := auth.ValidateNewPassword(cmd.Password, cmd.Password); err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := auth.NewService(db.DB, config.Auth{BcryptCost: cmd.BcryptCost}, nil)
	user, err := svc.CreateUser(cmd.Email, cmd.FullName, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created administrator %s (id %d)\n", user.Email, user.ID)
	return nil
}
