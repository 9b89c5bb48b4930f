package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"record-sync/core/config"
	"record-sync/core/database"
	"record-sync/core/document"
	"record-sync/core/logger"
	"record-sync/core/reconcile"
	"record-sync/core/storage"
	"record-sync/feature/records"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentJobs bounds the jobs loading or syncing at the same time.
const maxConcurrentJobs = 4

var (
	// Flags for the reconcile command
	syncJobs      []string
	fromObject    bool
	syncLocalKey  string
	syncRemoteKey string
	syncKeyType   string
	syncCoerce    bool
	syncOps       string
	syncScope     string
	syncScopeKeys string
	syncRoot      string
	syncFields    string
	dryRunSync    bool
	yesConfirm    bool
)

// reconcileCmd reconciles one or more record documents into local tables.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile record documents into local tables (report + apply)",
	Long: `Reconcile remote record documents against local database tables.

Each --job names an entity (table) and the document holding its remote
records. New records are inserted, matched records updated and local records
missing from the document deleted. A report is always printed first; deletions
require confirmation.

Examples:
  # Report only
  reconcile --job users=users.json --dry-run

  # Sync two tables, auto-confirm deletions
  reconcile --job users=users.json --job posts=posts.yaml --yes

  # Read the document from object storage, inserts and updates only
  reconcile --job users=sync/users.json --object --ops insert,update

  # Documents wrapping the array, scoped to part of the table
  reconcile --job users=export.json --root data.users --scope-field tenant_id:3
  reconcile --job users=export.json --scope 'age > 18 && active'`,
	RunE: runReconcile,
}

func init() {
	flags := reconcileCmd.Flags()
	flags.StringArrayVar(&syncJobs, "job", nil, "Sync job as entity=path (repeatable)")
	flags.BoolVar(&fromObject, "object", false, "Read job paths as object names from storage")
	flags.StringVar(&syncLocalKey, "local-key", "", "Local key column (default from config)")
	flags.StringVar(&syncRemoteKey, "remote-key", "", "Remote key path (default from config)")
	flags.StringVar(&syncKeyType, "key-type", "", "Key type: auto, int or string")
	flags.BoolVar(&syncCoerce, "coerce", false, "Let digit strings and integers match")
	flags.StringVar(&syncOps, "ops", "", "Permitted operations, e.g. insert,update (default all)")
	flags.StringVar(&syncScope, "scope", "", "Expression restricting the local records")
	flags.StringVar(&syncScopeKeys, "scope-field", "", "Column equalities restricting the local records, as column:value,...")
	flags.StringVar(&syncRoot, "root", "", "Dotted path to the record array inside the document")
	flags.StringVar(&syncFields, "fields", "", "Field overrides as remoteField:column,...")
	flags.BoolVar(&dryRunSync, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	flags.BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	_ = reconcileCmd.MarkFlagRequired("job")

	RootCmd.AddCommand(reconcileCmd)
}

// syncJob is one entity and the document its remote records come from.
type syncJob struct {
	entity  string
	source  string
	records []reconcile.Record
	preview *reconcile.Result
}

// parseJobs parses entity=path pairs. An entity may appear only once.
func parseJobs(specs []string) ([]*syncJob, error) {
	seen := make(map[string]bool, len(specs))
	jobs := make([]*syncJob, 0, len(specs))
	for _, spec := range specs {
		entity, source, ok := strings.Cut(spec, "=")
		entity, source = strings.TrimSpace(entity), strings.TrimSpace(source)
		if !ok || entity == "" || source == "" {
			return nil, fmt.Errorf("invalid job %q, want entity=path", spec)
		}
		if seen[entity] {
			return nil, fmt.Errorf("entity %s appears in more than one job", entity)
		}
		seen[entity] = true
		jobs = append(jobs, &syncJob{entity: entity, source: source})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one --job is required")
	}
	return jobs, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	jobs, err := parseJobs(syncJobs)
	if err != nil {
		return err
	}
	fields, err := records.ParsePairs(syncFields)
	if err != nil {
		return fmt.Errorf("invalid --fields: %w", err)
	}
	scopeFields, err := records.ParsePairs(syncScopeKeys)
	if err != nil {
		return fmt.Errorf("invalid --scope-field: %w", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	st, err := openStore(db, cfg.Sync)
	if err != nil {
		return fmt.Errorf("invalid sync configuration: %w", err)
	}

	var client storage.Client
	if fromObject {
		if client, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	svc := records.NewService(st, client, cfg.Storage.Bucket, cfg.Sync, l)
	opts := records.SyncOptions{
		LocalKey:    syncLocalKey,
		RemoteKey:   syncRemoteKey,
		KeyType:     syncKeyType,
		Coerce:      syncCoerce,
		Operations:  syncOps,
		Scope:       syncScope,
		ScopeFields: scopeFields,
		Fields:      fields,
	}

	// Step 1: Load documents
	if err := forEachJob(ctx, jobs, func(ctx context.Context, job *syncJob) error {
		var err error
		if fromObject {
			job.records, err = document.FetchObject(ctx, client, cfg.Storage.Bucket, job.source, syncRoot)
		} else {
			job.records, err = document.ReadFile(job.source, syncRoot)
		}
		return err
	}); err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	// Step 2: Plan (always runs)
	l.Info("Planning reconciliation...", zap.Int("jobs", len(jobs)))
	previewOpts := opts
	previewOpts.DryRun = true
	if err := forEachJob(ctx, jobs, func(ctx context.Context, job *syncJob) error {
		var err error
		job.preview, err = svc.Sync(ctx, job.entity, job.records, previewOpts)
		return err
	}); err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	// Step 3: Print report
	actions, deletions := 0, 0
	for _, job := range jobs {
		printReconcileReport(l, job)
		actions += len(job.preview.Actions) + len(job.preview.Duplicates)
		deletions += job.preview.Summary.Deleted + job.preview.Summary.Duplicates
	}

	if dryRunSync {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if actions == 0 {
		l.Info("No actions required.")
		return nil
	}

	// Step 4: Apply (deletions need confirmation)
	if deletions > 0 && !confirmDestructiveAction(deletions) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	l.Info("Applying actions...")
	if err := forEachJob(ctx, jobs, func(ctx context.Context, job *syncJob) error {
		result, err := svc.Sync(ctx, job.entity, job.records, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", job.entity, err)
		}
		l.Info("Job applied",
			zap.String("entity", job.entity),
			zap.Int("inserted", result.Summary.Inserted),
			zap.Int("updated", result.Summary.Updated),
			zap.Int("deleted", result.Summary.Deleted),
			zap.Int("duplicates", result.Summary.Duplicates),
		)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to apply reconciliation: %w", err)
	}

	l.Info("Successfully reconciled", zap.Int("jobs", len(jobs)))
	return nil
}

// forEachJob runs fn for every job concurrently and returns the first error.
func forEachJob(ctx context.Context, jobs []*syncJob, fn func(context.Context, *syncJob) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentJobs)
	for _, job := range jobs {
		g.Go(func() error {
			return fn(ctx, job)
		})
	}
	return g.Wait()
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, job *syncJob) {
	s := job.preview.Summary

	l.Info("Reconciliation report",
		zap.String("entity", job.entity),
		zap.String("source", job.source),
		zap.Int("remote", s.Remote),
		zap.Int("inserts", s.Inserted),
		zap.Int("updates", s.Updated),
		zap.Int("deletes", s.Deleted),
		zap.Int("skipped", s.Skipped),
		zap.Int("duplicates", s.Duplicates),
		zap.Int("residual", s.Residual),
	)

	actions := job.preview.Actions
	maxShow := min(5, len(actions))
	for _, action := range actions[:maxShow] {
		l.Info("Sample action",
			zap.String("entity", job.entity),
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key.String()),
			zap.String("local_id", string(action.LocalID)),
		)
	}
	if len(actions) > maxShow {
		l.Info("Additional actions not shown", zap.String("entity", job.entity), zap.Int("count", len(actions)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(deletions int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %d local records will be deleted. Type 'yes' to confirm: ", deletions)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
