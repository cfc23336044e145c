package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"secure_eraser/internal/app"
	"secure_eraser/internal/config"
	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/job"
	"secure_eraser/internal/logging"
	"secure_eraser/internal/pattern"
)

const (
	Version = "2.0.0"
	AppName = "Secure Eraser"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

// errPartialFailure marks a run where some targets failed but at
// least one succeeded.
var errPartialFailure = errors.New("some targets failed")

var (
	cfg        *config.Config
	logger     *logging.EnterpriseLogger
	eraser     *app.App
	verbose    bool
	configPath string
	method     string
	passes     int
	doVerify   bool
	force      bool
	scramble   bool
)

var rootCmd = &cobra.Command{
	Use:     "secure-eraser",
	Short:   AppName + " - secure data destruction tool",
	Long:    "Securely erases files, directories and free disk space using multi-pass overwrite standards, with verification reports and resumable jobs",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.NewEnterpriseLogger(cfg, verbose)
		if err != nil {
			return err
		}
		eraser, err = app.New(cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

var wipeFileCmd = &cobra.Command{
	Use:   "wipe-file <file>...",
	Short: "Securely erase one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWipe("file", args)
	},
}

var wipeDirCmd = &cobra.Command{
	Use:   "wipe-dir <directory>...",
	Short: "Securely erase directory trees",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWipe("directory", args)
	},
}

var wipeFreeCmd = &cobra.Command{
	Use:   "wipe-free <mount>...",
	Short: "Overwrite free space on a filesystem",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWipe("freespace", args)
	},
}

var wipeDriveCmd = &cobra.Command{
	Use:   "wipe-drive <mount>",
	Short: "Purge all content and free space of a mount (DESTRUCTIVE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !force {
			return eraserr.ErrForceRequired
		}
		return runWipe("drive", args)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage wiping jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs, newest first",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsResumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Resume a paused job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsResume,
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eraser.Jobs.DeleteJob(args[0])
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage custom wipe patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available methods and custom patterns",
	RunE:  runPatternsList,
}

var patternsCreateCmd = &cobra.Command{
	Use:   "create <name> <hex>",
	Short: "Create a custom hex pattern",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		if err := eraser.Registry.CreateHex(args[0], args[1], desc); err != nil {
			return err
		}
		fmt.Printf("Created pattern custom:%s\n", args[0])
		return nil
	},
}

var patternsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a custom pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eraser.Registry.Delete(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	for _, cmd := range []*cobra.Command{wipeFileCmd, wipeDirCmd, wipeFreeCmd, wipeDriveCmd} {
		cmd.Flags().StringVarP(&method, "method", "m", "", "Wipe method (standard/dod3/dod7/gutmann/paranoid/nist-clear/nist-purge/hmg-baseline/hmg-enhanced/navso/afssi/ar380-19/csc/custom:<name>)")
		cmd.Flags().IntVarP(&passes, "passes", "p", 0, "Pass count (fixed standards ignore this)")
		cmd.Flags().BoolVar(&doVerify, "verify", false, "Hash before wiping and record verification evidence")
		cmd.Flags().BoolVar(&scramble, "anti-forensics", false, "Scramble timestamps, attributes and names before unlinking")
	}
	wipeDriveCmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm the destructive whole-drive wipe")

	patternsCreateCmd.Flags().String("description", "", "Pattern description")

	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsResumeCmd, jobsDeleteCmd)
	patternsCmd.AddCommand(patternsListCmd, patternsCreateCmd, patternsDeleteCmd)
	rootCmd.AddCommand(wipeFileCmd, wipeDirCmd, wipeFreeCmd, wipeDriveCmd, jobsCmd, patternsCmd)
}

// signalContext cancels on SIGINT/SIGTERM so running jobs pause and
// checkpoint instead of dying mid-pass.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		logger.Log("WARN", "Signal received, pausing", "signal", sig.String())
		cancel()
	}()
	return ctx, cancel
}

func runWipe(operation string, targets []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	j, err := eraser.RunWipe(ctx, app.WipeRequest{
		Operation:     operation,
		Targets:       targets,
		Method:        method,
		Passes:        passes,
		Verify:        doVerify,
		Force:         force,
		AntiForensics: scramble,
		Progress: func(message string, percent float64, pass, total int) {
			fmt.Printf("\r[pass %d/%d] %5.1f%% %s", pass, total, percent, message)
		},
	})
	fmt.Println()
	if err != nil {
		if j != nil && j.Status == job.StatusPaused {
			fmt.Printf("Job %s paused; resume with: secure-eraser jobs resume %s\n", j.ID, j.ID)
		}
		return err
	}

	fmt.Printf("Job %s completed: %d succeeded, %d failed\n",
		j.ID, j.Results.SuccessCount, j.Results.ErrorCount)
	if j.Results.ErrorCount > 0 {
		// Mapped to EXIT_WARNING in main so deferred cleanup still runs.
		return errPartialFailure
	}
	return nil
}

func runJobsList(cmd *cobra.Command, args []string) error {
	list, err := eraser.Jobs.ListJobs()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No stored jobs")
		return nil
	}
	fmt.Printf("%-36s  %-9s  %-10s  %s\n", "JOB ID", "STATUS", "OPERATION", "PROGRESS")
	for _, s := range list {
		fmt.Printf("%-36s  %-9s  %-10s  %d/%d\n",
			s.ID, s.Status, s.Operation, s.ProcessedItems, s.TotalItems)
	}
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	j, err := eraser.Jobs.LoadJob(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Job:        %s\n", j.ID)
	fmt.Printf("Status:     %s\n", j.Status)
	fmt.Printf("Operation:  %s (%s, %d passes)\n", j.Config.Operation, j.Config.Method, j.Config.Passes)
	fmt.Printf("Targets:    %v\n", j.Config.Targets)
	fmt.Printf("Progress:   %d/%d items, %d bytes\n",
		j.Progress.ProcessedItems, j.Progress.TotalItems, j.Progress.BytesProcessed)
	fmt.Printf("Results:    %d succeeded, %d failed\n",
		j.Results.SuccessCount, j.Results.ErrorCount)
	for _, e := range j.Results.Errors {
		fmt.Printf("  error: %s: %s\n", e.Item, e.Error)
	}
	return nil
}

func runJobsResume(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	j, err := eraser.ResumeJob(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Job %s finished with status %s\n", j.ID, j.Status)
	return nil
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	fmt.Println("Built-in methods:")
	methods := []pattern.Method{
		pattern.MethodStandard, pattern.MethodDoD3, pattern.MethodDoD7,
		pattern.MethodGutmann, pattern.MethodParanoid, pattern.MethodNistClear,
		pattern.MethodNistPurge, pattern.MethodHmgBaseline, pattern.MethodHmgEnhanced,
		pattern.MethodNavso, pattern.MethodAfssi, pattern.MethodAR380, pattern.MethodCSC,
	}
	for _, m := range methods {
		fmt.Printf("  %s\n", m)
	}

	custom := eraser.ListPatterns()
	if len(custom) > 0 {
		fmt.Println("Custom patterns:")
		for _, p := range custom {
			fmt.Printf("  %-24s %-10s %s\n", p.Name, p.Kind, p.Description)
		}
	}
	return nil
}

// exitCode maps the outcome of a command to the process exit code.
// Partial failures warn instead of erroring so scripted batch runs
// can tell the difference.
func exitCode(err error) int {
	switch {
	case err == nil:
		return EXIT_SUCCESS
	case errors.Is(err, errPartialFailure):
		return EXIT_WARNING
	default:
		return EXIT_ERROR
	}
}

func main() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if code == EXIT_ERROR {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
