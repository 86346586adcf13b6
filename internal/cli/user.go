package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/entrypoint"
	"github.com/mrlokans/matjip/internal/entities"
)

// CreateUserCommand adds a local account, e.g. the first admin.
type CreateUserCommand struct {
	Username string
	Email    string
	Password string
	Role     string
}

func newCreateUserCommand(flags *globalFlags) *cobra.Command {
	cu := &CreateUserCommand{}
	cmd := &cobra.Command{
		Use:   "create-user --username <name> --email <email> --password <password>",
		Short: "Create a local user account",
		Long:  "Create a user for AUTH_MODE=local. Without --role the first user becomes admin and later ones members.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *entrypoint.App) error {
				svc := auth.NewService(app.Users, app.Config.Auth, nil, app.Logger)
				user, err := cu.Run(svc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (%s)\n", user.Role, user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cu.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&cu.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&cu.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&cu.Role, "role", "", "admin or member")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (cu *CreateUserCommand) Run(svc *auth.Service) (*entities.User, error) {
	user, err := svc.Register(auth.Registration{
		Username: cu.Username,
		Email:    cu.Email,
		Password: cu.Password,
		Role:     entities.UserRole(cu.Role),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}
