package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lifetrack/internal/core"
	"lifetrack/internal/services"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the default expense categories when none exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			res, err := openBackend(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer closeBackend(res, logger)

			svc := services.NewExpenseService(res.Repository, nil, logger)
			created, err := svc.SeedCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
			printSeeded(cmd.OutOrStdout(), created)
			return nil
		},
	})
	return cmd
}

func printSeeded(w io.Writer, created []core.ExpenseCategory) {
	if len(created) == 0 {
		fmt.Fprintln(w, "Categories already exist")
		return
	}
	for _, c := range created {
		fmt.Fprintf(w, "created %s\n", c.Name)
	}
	fmt.Fprintf(w, "Added %d categories\n", len(created))
}
