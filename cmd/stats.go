package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marat/lexdrill/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
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

		ctx := cmd.Context()
		now := time.Now()

		total, err := st.Catalog().Count(ctx)
		if err != nil {
			return err
		}
		reviewed, err := st.Progress().CountReviewed(ctx, cfg.Student)
		if err != nil {
			return err
		}
		due, err := st.Progress().CountDue(ctx, cfg.Student, now)
		if err != nil {
			return err
		}

		fmt.Printf("Student: %s\n", cfg.Student)
		fmt.Printf("  Words in catalog: %d\n", total)
		fmt.Printf("  Words reviewed:   %d\n", reviewed)
		fmt.Printf("  Due for review:   %d\n", due)

		recent, err := st.Summaries().Recent(ctx, cfg.Student, 5)
		if err != nil {
			return err
		}
		if len(recent) == 0 {
			fmt.Println("  No sessions yet.")
			return nil
		}

		fmt.Println("\nRecent sessions:")
		for _, sum := range recent {
			fmt.Printf("  %s  %2d/%2d correct  %3.0f%%  difficulty %.2f\n",
				sum.StartedAt.Local().Format("2006-01-02 15:04"),
				sum.Correct, sum.Correct+sum.Incorrect, sum.Accuracy*100, sum.Difficulty)
		}
		return nil
	},
}
