package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitm/javango/internal/record"
)

// ImportResult summarizes an import.
type ImportResult struct {
	Model    string          `json:"model"`
	Created  int             `json:"created"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// ImportFailure is one line that did not become a record.
type ImportFailure struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func (r ImportResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d record(s) into %s", r.Created, r.Model)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  line %d: %s", f.Line, f.Error)
	}
	return b.String()
}

type importOptions struct {
	workers int
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <model> <file.jsonl>",
		Short: "Create records from a JSON Lines file",
		Long: `Create one record per line of a JSON Lines file.

Lines are created concurrently on a bounded worker pool; blank lines are
skipped. A failing line does not stop the others. The command exits
non-zero when any line failed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 4, "number of concurrent inserts")

	return cmd
}

var errWorkerPanicked = errors.New("worker panicked")

type importLine struct {
	num  int
	text string
}

func runImport(rootOpts *RootOptions, opts *importOptions, cmd *cobra.Command, name, path string) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.workers < 1 {
		return outputError(formatter, ExitCommandError, ErrCodeBadArgument,
			fmt.Sprintf("--workers must be at least 1, got %d", opts.workers), nil)
	}

	lines, err := readLines(path)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}

	e, err := newEnv(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return outputSetupError(formatter, err)
	}
	defer e.Close()

	m, err := e.openModel(name)
	if err != nil {
		return outputSetupError(formatter, err)
	}

	log := e.log.WithField("model", name)
	pool, err := ants.NewPool(opts.workers, ants.WithPanicHandler(func(v any) {
		log.WithField("panic", v).Error("import worker panicked")
	}))
	if err != nil {
		return outputError(formatter, ExitFailure, ErrCodeGeneric, "failed to start worker pool: "+err.Error(), nil)
	}
	defer pool.Release()

	formatter.VerboseLog("Importing %d line(s) from %s with %d worker(s)", len(lines), path, opts.workers)

	ctx := cmd.Context()
	errs := make([]error, len(lines))
	var wg sync.WaitGroup
	for i, line := range lines {
		r, err := record.Decode(line.text)
		if err != nil {
			errs[i] = err
			continue
		}

		i, r := i, r
		wg.Add(1)
		// Kept if the task panics.
		errs[i] = errWorkerPanicked
		submitErr := pool.Submit(func() {
			defer wg.Done()
			errs[i] = m.CreateNew(ctx, r)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	result := ImportResult{Model: name}
	for i, err := range errs {
		if err == nil {
			result.Created++
			continue
		}
		result.Failures = append(result.Failures, ImportFailure{
			Line:  lines[i].num,
			Error: describeImportError(err),
		})
	}

	log.WithFields(logrus.Fields{
		"created": result.Created,
		"failed":  len(result.Failures),
	}).Info("import finished")

	if len(result.Failures) > 0 {
		return outputImportFailures(formatter, result, len(lines))
	}
	return formatter.Success(result)
}

// outputImportFailures writes the summary alongside the error so callers
// can see which lines went in.
func outputImportFailures(f *OutputFormatter, result ImportResult, total int) error {
	msg := fmt.Sprintf("%d of %d record(s) failed", len(result.Failures), total)
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeImportFailed, Message: msg},
		})
	} else {
		fmt.Fprintln(f.Writer, result)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeImportFailed, msg))
}

// readLines returns the non-blank lines of path with 1-based line numbers.
func readLines(path string) ([]importLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []importLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	num := 0
	for sc.Scan() {
		num++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		lines = append(lines, importLine{num: num, text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

func describeImportError(err error) string {
	if record.IsParseError(err) {
		return malformedMessage
	}
	return err.Error()
}
