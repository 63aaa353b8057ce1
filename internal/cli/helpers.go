// Shared helpers for reclaim CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicworks/reclaim/internal/dispatch"
	"github.com/civicworks/reclaim/internal/lifecycle"
	"github.com/civicworks/reclaim/internal/match"
	"github.com/civicworks/reclaim/internal/sqlite"
	"github.com/civicworks/reclaim/pkg/types"
)

// foundDateLayout is the CLI input format for found dates.
const foundDateLayout = "2006-01-02"

// app bundles the attached backend with the wired service for one
// command invocation. Close must be called to flush the dispatch queue
// and detach the backend.
type app struct {
	backend *sqlite.Backend
	queue   *dispatch.Queue
	service *lifecycle.Service
	matcher *match.Matcher
}

// openApp resolves directories, attaches the backend, and wires the
// lifecycle service with a log-backed dispatcher. Commands run the
// matching engine synchronously because the process exits right after
// the command returns.
func openApp() (*app, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataDir, err := resolveDataDir(cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(types.Config{
		Backend: cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	objects, err := backend.Objects()
	if err != nil {
		backend.Detach()
		return nil, err
	}
	notifications, err := backend.Notifications()
	if err != nil {
		backend.Detach()
		return nil, err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	queue := dispatch.NewQueue(&dispatch.LogSender{Logger: logger}, logger, 0)

	return &app{
		backend: backend,
		queue:   queue,
		service: lifecycle.New(objects, notifications, queue, lifecycle.WithLogger(logger)),
		matcher: match.New(notifications, queue),
	}, nil
}

// Close flushes pending dispatches and detaches the backend.
func (a *app) Close() {
	a.queue.Close()
	a.backend.Detach()
}

// parseFields converts key=value arguments into descriptive fields.
func parseFields(args []string) ([]types.Field, error) {
	fields := make([]types.Field, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid field %q (expected name=value)", arg)
		}
		fields = append(fields, types.Field{Name: parts[0], Value: parts[1]})
	}
	return fields, nil
}

// parseFoundDate parses a YYYY-MM-DD date flag. Empty input yields the
// zero time.
func parseFoundDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(foundDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseStatusFlag parses an optional status flag value.
func parseStatusFlag(s string) (*types.ObjectStatus, error) {
	if s == "" {
		return nil, nil
	}
	status, err := types.ParseStatus(s)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printObjects writes a listing either as JSON or as summary lines.
func printObjects(cmd *cobra.Command, objects []types.Object) error {
	if flags.jsonMode {
		return printJSON(cmd, objects)
	}
	for _, obj := range objects {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  %s  found %s  %s\n",
			obj.ID, obj.Category, obj.Type, obj.Status,
			obj.FoundDate.Format(foundDateLayout), obj.Institution)
	}
	return nil
}

// userError prints the message to stderr and exits with the user-error code.
func userError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitUserError)
}

// sysError prints the message to stderr and exits with the system-error code.
func sysError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitSysError)
}
