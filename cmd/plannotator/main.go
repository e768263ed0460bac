// Plannotator - human review gate for AI-generated plans
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/plannotator/plannotator/internal/config"
	"github.com/plannotator/plannotator/internal/netmode"
	"github.com/plannotator/plannotator/internal/planstore"
	"github.com/plannotator/plannotator/internal/review"
	"github.com/plannotator/plannotator/internal/server"
	"github.com/plannotator/plannotator/internal/share"
)

var (
	flagOrigin  string
	flagRemote  bool
	flagPort    int
	flagPlanDir string

	planDenied bool
)

var rootCmd = &cobra.Command{
	Use:           "plannotator",
	Short:         "Submit an AI-generated plan for human review in the browser",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var reviewCmd = &cobra.Command{
	Use:   "review [planfile]",
	Short: "Serve a plan for review and wait for the decision",
	Long: `Review starts a short-lived local server bound to the given plan,
opens it for exactly one human decision, and exits once the reviewer
approves or requests changes. The plan is read from the file argument,
or from stdin when no argument is given.

Exit status is 0 when the plan is approved and 2 when changes are
requested; the formatted feedback is printed to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&flagOrigin, "origin", "agent", "tag identifying the invoking agent")
	reviewCmd.Flags().BoolVar(&flagRemote, "remote", false, "bind the fixed well-known port for tunneled access")
	reviewCmd.Flags().IntVar(&flagPort, "port", 0, "remote-mode port (default "+fmt.Sprint(netmode.DefaultRemotePort)+")")
	reviewCmd.Flags().StringVar(&flagPlanDir, "plan-dir", "", "plan storage directory (default "+planstore.DefaultDir+")")
	rootCmd.AddCommand(reviewCmd)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if planDenied {
		os.Exit(2)
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	plan, err := readPlan(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Flags override the environment.
	if flagRemote {
		cfg.Remote = true
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagPlanDir != "" {
		cfg.PlanDir = flagPlanDir
	}

	store, err := planstore.New(cfg.PlanDir)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	srv, err := server.Start(server.Options{
		Plan:    plan,
		Origin:  flagOrigin,
		Binding: netmode.Resolve(netmode.Options{Remote: cfg.Remote, Port: cfg.Port}),
		OnReady: func(url string, remote bool, port int) {
			fmt.Fprintf(errOut, "Review your plan at: %s\n", url)
			if remote {
				fmt.Fprintf(errOut, "Remote mode: forward port %d to reach this session.\n", port)
				share.WriteRemoteShareLink(errOut, plan, cfg.ShareBaseURL)
			}
		},
	})
	if err != nil {
		return err
	}
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decision, err := srv.WaitForDecision(ctx)
	if err != nil {
		if errors.Is(err, server.ErrAborted) {
			return errors.New("review aborted before a decision was made")
		}
		return err
	}

	// The stored record exists only once the session is terminal: an
	// aborted review leaves nothing on disk.
	if err := persistRecord(store, plan, decision); err != nil {
		return err
	}

	if decision.Approved {
		fmt.Fprintln(errOut, "Plan approved.")
		return nil
	}

	planDenied = true
	fmt.Fprintln(errOut, "Changes requested:")
	fmt.Fprintln(cmd.OutOrStdout(), decision.Feedback)
	return nil
}

// persistRecord writes all three files of the stored record after the
// decision is terminal.
func persistRecord(store *planstore.Store, plan string, decision review.Decision) error {
	slug := planstore.Slug(plan, time.Now())
	if err := store.SavePlan(slug, plan); err != nil {
		return err
	}

	annotations := decision.Feedback
	if decision.Approved {
		annotations = review.NoChanges
	}
	if err := store.SaveAnnotations(slug, annotations); err != nil {
		return err
	}
	return store.SaveFinalSnapshot(slug, decision.Outcome(), plan, annotations)
}

// readPlan loads the plan from the file argument, or stdin when the
// plan is piped in.
func readPlan(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read plan: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read plan from stdin: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("no plan provided: pass a file or pipe the plan to stdin")
	}
	return string(data), nil
}
