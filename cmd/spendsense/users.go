package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiont/spendsense/internal/cli"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/config"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/storage"
)

// usersFile is the import document: a top-level users list.
type usersFile struct {
	Users []model.UserRecord `yaml:"users"`
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user profiles and consent",
	}

	cmd.AddCommand(usersImportCmd())
	cmd.AddCommand(usersConsentCmd())
	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersDeleteCmd())

	return cmd
}

func usersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import user profiles and signal snapshots",
		Long: `Import users from a YAML file. Every record is validated before
anything is written, and the whole file is imported in one transaction.

Example:

  users:
    - id: user_001
      consent: true
      monthly_income: 450000
      accounts:
        - {type: credit, subtype: credit_card}
      signals:
        - window_days: 30
          credit: {overall_utilization: 72.5, total_balance: 362500, total_limit: 500000}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return runUsersImport(cmd.Context(), store, cmd.OutOrStdout(), config.ExpandPath(args[0]))
		},
	}
}

func runUsersImport(ctx context.Context, store *storage.SQLiteStorage, w io.Writer, path string) error {
	records, err := readUsersFile(path)
	if err != nil {
		return err
	}

	if err := store.SaveUsers(ctx, records); err != nil {
		return common.NewUserError("Import failed, nothing was written", err)
	}

	_, err = fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Imported %d users from %s", len(records), path)))
	return err
}

func readUsersFile(path string) ([]model.UserRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // import path is user-provided
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc usersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, common.NewUserError(fmt.Sprintf("%s is not valid YAML", path), err)
	}
	if len(doc.Users) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("%s contains no users", path), common.ErrInvalidInput)
	}

	var errs []error
	for i, u := range doc.Users {
		if err := storage.ValidateUser(u); err != nil {
			errs = append(errs, fmt.Errorf("user %d (%s): %w", i+1, u.ID, err))
		}
	}
	if len(errs) > 0 {
		return nil, common.NewUserError(fmt.Sprintf("%s has %d invalid users", path, len(errs)), errors.Join(errs...))
	}

	return doc.Users, nil
}

func usersConsentCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "consent <user-id>",
		Short: "Grant or revoke a user's consent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return runUsersConsent(cmd.Context(), store, cmd.OutOrStdout(), args[0], !revoke)
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke consent instead of granting it")

	return cmd
}

func runUsersConsent(ctx context.Context, store *storage.SQLiteStorage, w io.Writer, userID string, granted bool) error {
	if err := store.SetConsent(ctx, userID, granted); err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}

	msg := fmt.Sprintf("Consent granted for %s", userID)
	if !granted {
		msg = fmt.Sprintf("Consent revoked for %s", userID)
	}
	_, err := fmt.Fprintln(w, cli.FormatSuccess(msg))
	return err
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported users with their consent status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return runUsersList(cmd.Context(), store, cmd.OutOrStdout())
		},
	}
}

func runUsersList(ctx context.Context, store *storage.SQLiteStorage, w io.Writer) error {
	ids, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(ids) == 0 {
		_, err = fmt.Fprintln(w, cli.FormatInfo("No users imported yet"))
		return err
	}

	for _, id := range ids {
		granted, err := store.Consent(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read consent for %s: %w", id, err)
		}
		status := cli.SuccessStyle.Render("consent")
		if !granted {
			status = cli.SubtleStyle.Render("no consent")
		}
		fmt.Fprintf(w, "%-24s %s\n", id, status)
	}
	return nil
}

func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user with its signals and assignment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteUser(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+args[0]))
			return err
		},
	}
}

// openStore opens the profile store without wiring the pipeline.
func openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	return initStorage(ctx, config.ExpandPath(viper.GetString("database.path")))
}
