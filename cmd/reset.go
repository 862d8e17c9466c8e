package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marat/lexdrill/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase a student's progress and session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("This erases all progress for %q. The word catalog is kept. Continue? [y/N] ", cfg.Student)
			in := bufio.NewScanner(os.Stdin)
			if !in.Scan() || strings.ToLower(strings.TrimSpace(in.Text())) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.Progress().DeleteStudent(cmd.Context(), cfg.Student); err != nil {
			return err
		}
		fmt.Printf("Progress for %q erased.\n", cfg.Student)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
