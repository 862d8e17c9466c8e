package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marat/lexdrill/internal/excel"
	"github.com/marat/lexdrill/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import vocabulary from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		cfg := excel.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.StartRow, _ = cmd.Flags().GetInt("start-row")

		res, err := excel.New(st.Catalog(), cfg).Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d rows: %d created, %d updated.\n",
			res.TotalProcessed, res.Created, res.Updated)
		for _, e := range res.Errors {
			fmt.Println("  skipped:", e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("sheet", "Sheet1", "Worksheet name for .xlsx files")
	importCmd.Flags().Int("start-row", 2, "First data row (1-based)")
}
