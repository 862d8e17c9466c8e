package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marat/lexdrill/internal/engine"
	"github.com/marat/lexdrill/internal/quiz"
	"github.com/marat/lexdrill/internal/session"
	"github.com/marat/lexdrill/internal/store"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func init() {
	practiceCmd.Flags().String("unit", "", "Restrict the session to one curriculum unit")
	practiceCmd.Flags().Int("size", 0, "Number of questions (0 = configured default)")
	practiceCmd.Flags().String("mode", "", "Session mode: mixed, recognition, or recall")
}

// runPractice opens the store, builds the engine, and drives one
// interactive session over stdin.
func runPractice(cmd *cobra.Command) error {
	ctx := cmd.Context()
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

	eng, err := engine.New(st.Catalog(), st.Progress(), st.Summaries(), cfg.EngineConfig(),
		engine.WithLogger(newLogger(cfg)))
	if err != nil {
		return err
	}
	defer eng.Close()

	unit, _ := cmd.Flags().GetString("unit")
	size, _ := cmd.Flags().GetInt("size")
	mode := cfg.Mode()
	if m, _ := cmd.Flags().GetString("mode"); m != "" {
		mode = quiz.Mode(m)
	}

	sess, err := eng.GenerateSession(ctx, cfg.Student, unit, size, mode)
	if err != nil {
		if errors.Is(err, quiz.ErrEmptyQueue) {
			fmt.Println("Nothing to practice. Import some words first: lexdrill import <file>")
			return nil
		}
		return err
	}

	fmt.Printf("Session for %s: %d questions. Answer, or type /skip, /hint, /quit.\n\n",
		cfg.Student, len(sess.Questions))

	in := bufio.NewScanner(os.Stdin)
	for sess.Status == session.InProgress {
		q := sess.Current()
		printQuestion(sess, q)

		raw, hintUsed, action := readAnswer(in, q)
		switch action {
		case actionQuit:
			if err := eng.Abandon(sess); err != nil {
				return err
			}
		case actionSkip:
			if err := eng.SkipCurrent(sess); err != nil {
				return err
			}
			fmt.Println("Skipped.")
		default:
			out, err := eng.SubmitAnswer(ctx, sess, sess.Pos, raw.text, raw.elapsed.Milliseconds(), hintUsed)
			if err != nil {
				return err
			}
			printOutcome(q, out)
		}
		fmt.Println()
	}

	sum, err := eng.Summary(ctx, sess)
	if err != nil {
		return err
	}
	printSummary(sum)

	eng.Close()
	drainFailures(eng)
	return nil
}

type answerAction int

const (
	actionAnswer answerAction = iota
	actionSkip
	actionQuit
)

type rawAnswer struct {
	text    string
	elapsed time.Duration
}

// readAnswer reads one line, handling the /skip, /hint, and /quit
// commands. The elapsed time covers everything from prompt to submit,
// hints included.
func readAnswer(in *bufio.Scanner, q *quiz.Question) (rawAnswer, bool, answerAction) {
	start := time.Now()
	hintUsed := false
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return rawAnswer{}, hintUsed, actionQuit
		}
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "/quit", "/q":
			return rawAnswer{}, hintUsed, actionQuit
		case "/skip", "/s":
			return rawAnswer{}, hintUsed, actionSkip
		case "/hint", "/h":
			hintUsed = true
			fmt.Println("Hint:", hint(q))
			continue
		}
		return rawAnswer{text: line, elapsed: time.Since(start)}, hintUsed, actionAnswer
	}
}

func printQuestion(sess *session.Session, q *quiz.Question) {
	fmt.Printf("[%d/%d] %s\n", sess.Pos+1, len(sess.Questions), q.Prompt)
	for i, opt := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	if q.Type == quiz.AudioRecognition {
		fmt.Printf("  (audio: %s)\n", q.Item.AudioRef)
	}
}

func printOutcome(q *quiz.Question, out engine.AnswerOutcome) {
	if out.Correct {
		fmt.Printf("Correct! Next review %s.\n", humanDue(out.NextDue, time.Now()))
	} else {
		fmt.Printf("Not quite. The answer is %q. You'll see it again soon.\n", q.Answer)
	}
}

// hint reveals the first letter and length of the answer.
func hint(q *quiz.Question) string {
	runes := []rune(q.Answer)
	if len(runes) == 0 {
		return "(no hint available)"
	}
	return fmt.Sprintf("starts with %q, %d letters", string(runes[0]), len(runes))
}

func printSummary(sum *session.Summary) {
	fmt.Println("Session complete.")
	fmt.Printf("  Correct:   %d/%d (%.0f%%)\n", sum.Correct, sum.Correct+sum.Incorrect, sum.Accuracy*100)
	if sum.Skipped > 0 {
		fmt.Printf("  Skipped:   %d\n", sum.Skipped)
	}
	if sum.HintsUsed > 0 {
		fmt.Printf("  Hints:     %d\n", sum.HintsUsed)
	}
	fmt.Printf("  Time:      %s\n", sum.Duration.Round(time.Second))

	cats := make([]string, 0, len(sum.ByCategory))
	for c := range sum.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		r := sum.ByCategory[c]
		if r.Attempted == 0 {
			continue
		}
		name := c
		if name == "" {
			name = "(uncategorized)"
		}
		fmt.Printf("  %-12s %d/%d\n", name, r.Correct, r.Attempted)
	}
}

// drainFailures reports writes that never made it to disk. Called after
// Close so the failure channel is complete and closed.
func drainFailures(eng *engine.Engine) {
	failed := 0
	for range eng.Failures() {
		failed++
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d progress update(s) could not be saved\n", failed)
	}
}

// humanDue renders a due timestamp as a rough human interval.
func humanDue(due, now time.Time) string {
	d := due.Sub(now)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("in %d minutes", int(d.Minutes())+1)
	case d < 36*time.Hour:
		return fmt.Sprintf("in %d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("in %d days", int(d.Hours()/24))
	}
}
