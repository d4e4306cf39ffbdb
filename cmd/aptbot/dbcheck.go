package main

import (
	"context"
	"fmt"
	"io"

	"aptbot/internal/db"

	"github.com/spf13/cobra"
)

const listTablesQuery = `
SELECT TABLE_SCHEMA, TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME`

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Connect to SQL Server and list its tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.DBConfigured() {
			return fmt.Errorf("database is not configured (db.server and db.name)")
		}
		database, err := db.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DB.ConnTimeout)
		defer cancel()
		return dbcheck(ctx, database, cmd.OutOrStdout())
	},
}

func dbcheck(ctx context.Context, querier db.Querier, out io.Writer) error {
	rows, err := querier.QueryUnscoped(ctx, listTablesQuery)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	fmt.Fprintln(out, "Kết nối thành công!")
	fmt.Fprintf(out, "Database có %d bảng:\n", len(rows))
	for _, row := range rows {
		fmt.Fprintf(out, "   - %v.%v\n", row["TABLE_SCHEMA"], row["TABLE_NAME"])
	}
	return nil
}
