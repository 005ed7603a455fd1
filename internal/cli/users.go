package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/util"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// SuperuserOptions holds flags for the create-superuser command.
type SuperuserOptions struct {
	*RootOptions
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewCreateSuperuserCommand creates the create-superuser command.
func NewCreateSuperuserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuperuserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := runCreateSuperuser(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created superuser %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "login password (required)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateSuperuser(opts *SuperuserOptions) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(opts.Email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	if err := util.ValidatePassword(opts.Password); err != nil {
		return nil, err
	}
	hash, err := util.HashPassword(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    opts.FirstName,
		LastName:     opts.LastName,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := repository.NewUserRepository(opts.DB).Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("a user with email %s already exists", email)
		}
		return nil, err
	}
	return user, nil
}

// GrantRoleOptions holds flags for the grant-role command.
type GrantRoleOptions struct {
	*RootOptions
	Email string
	Role  string
}

// roleGroups maps the grantable staff roles to the group that confers them.
var roleGroups = map[model.AdminRole]string{
	model.RoleCentralOffice: model.GroupEmployees,
	model.RoleDispatcher:    model.GroupDispatchers,
}

// NewGrantRoleCommand creates the grant-role command.
func NewGrantRoleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GrantRoleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Make an existing user central office staff or a dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := runGrantRole(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has role %s\n", user.Email, user.Role())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email of the user (required)")
	cmd.Flags().StringVar(&opts.Role, "role", "", "central_office or dispatcher (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func runGrantRole(opts *GrantRoleOptions) (*model.User, error) {
	group, ok := roleGroups[model.AdminRole(opts.Role)]
	if !ok {
		return nil, fmt.Errorf("invalid role %q: must be %s or %s", opts.Role, model.RoleCentralOffice, model.RoleDispatcher)
	}

	users := repository.NewUserRepository(opts.DB)
	user, err := users.FindByEmail(strings.ToLower(strings.TrimSpace(opts.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no user with email %s", opts.Email)
		}
		return nil, err
	}

	if !user.IsStaff {
		user.IsStaff = true
		if err := users.Update(user); err != nil {
			return nil, err
		}
	}
	if err := users.AddToGroup(user.ID, group); err != nil {
		return nil, err
	}
	return users.FindByID(user.ID)
}
