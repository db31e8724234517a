package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pottifar/calendar/internal/infrastructure/persistence/postgres"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE:  migrate,
	}

	RootCmd.AddCommand(migrateCmd)
}

func migrate(cmd *cobra.Command, args []string) error {
	a, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	applied, err := postgres.Migrate(cmd.Context(), a.db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}
