package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vision-api/internal/domain"
	impl "vision-api/internal/service/impl"
)

// NewCreateAdminCmd creates an administrator account.
func NewCreateAdminCmd(dsn *string) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account. The username, email and password
must satisfy the same rules as a registration through the API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer e.close()

			username = strings.TrimSpace(username)
			email = domain.NormalizeEmail(email)
			if problems := e.rules.Registration(username, email, password); len(problems) > 0 {
				return fmt.Errorf("invalid account: %s", strings.Join(problems, "; "))
			}

			exists, err := e.store.Accounts().ExistsByEmailOrUsername(ctx, email, username)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("an account with email %q or username %q already exists", email, username)
			}

			hash, err := impl.NewPasswordServiceArgon2id(impl.DefaultArgon2Params()).Hash(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			acc := &domain.Account{
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				Role:         domain.RoleAdmin,
			}
			if err := e.store.Accounts().Create(ctx, acc); err != nil {
				return fmt.Errorf("create account: %w", err)
			}

			cmd.Printf("created administrator %s (%s)\n", acc.Username, acc.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewSetRoleCmd changes the role of the account with the given email.
func NewSetRoleCmd(dsn *string) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (want %q or %q)", role, domain.RoleUser, domain.RoleAdmin)
			}

			ctx := cmd.Context()
			e, err := open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer e.close()

			acc, err := e.store.Accounts().GetByEmail(ctx, email)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no account with email %q", email)
			}
			if err != nil {
				return err
			}
			if err := e.store.Accounts().SetRole(ctx, acc.ID, r); err != nil {
				return err
			}

			cmd.Printf("%s is now %s\n", acc.Username, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the account")
	cmd.Flags().StringVar(&role, "role", "", "new role (user or admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

// NewListCmd prints every account, newest first.
func NewListCmd(dsn *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer e.close()

			accounts, err := e.store.Accounts().List(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
			for _, a := range accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.Username, a.Email, a.Role.Effective(), a.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
}
