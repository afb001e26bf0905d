package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/app/diff"
	integrityapp "github.com/osvaldoandrade/schemaver/internal/app/integrity"
	latestapp "github.com/osvaldoandrade/schemaver/internal/app/latest"
	publishapp "github.com/osvaldoandrade/schemaver/internal/app/publish"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/osvaldoandrade/schemaver/internal/infra/canonicaljson"
	"github.com/osvaldoandrade/schemaver/internal/infra/filesystem"
	"github.com/osvaldoandrade/schemaver/internal/infra/hash"
	"github.com/osvaldoandrade/schemaver/internal/infra/jsonpatch"
	"github.com/osvaldoandrade/schemaver/internal/infra/schema"
	"github.com/osvaldoandrade/schemaver/internal/infra/storage"
	"github.com/osvaldoandrade/schemaver/internal/platform"
	"github.com/spf13/cobra"
)

func newCompareCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <old> <new>",
		Short: "Classify the update between two schema files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := filesystem.DocumentSource{}
			before, err := source.ReadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			after, err := source.ReadDocument(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			report, err := diff.Diff(before, after)
			if err != nil {
				return err
			}
			return writeCompareResult(cmd, report, opts.JSONOutput)
		},
	}
}

func newLatestCmd(opts *RootOptions) *cobra.Command {
	var name string
	var group string
	var collection string
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest stored version of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return domain.ErrSchemaNameRequired
			}
			if strings.TrimSpace(group) == "" {
				return domain.ErrSchemaGroupRequired
			}
			manager, err := newManager(opts)
			if err != nil {
				return err
			}
			var record domain.Record
			err = manager.WithCollection(cmd.Context(), collection, func(coll dbcontext.Collection) error {
				var err error
				record, err = latestapp.NewService().Fetch(cmd.Context(), name, group, coll)
				return err
			})
			if err != nil {
				return err
			}
			return writeRecord(cmd, record, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Schema name")
	cmd.Flags().StringVar(&group, "group", "", "Schema group")
	cmd.Flags().StringVar(&collection, "collection", defaultSchemaCollection, "Collection holding schema records")
	return cmd
}

func newPublishCmd(opts *RootOptions) *cobra.Command {
	var name string
	var group string
	var collection string
	var dryRun bool
	var validate bool
	cmd := &cobra.Command{
		Use:   "publish <schema>",
		Short: "Store a schema under the next version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := filesystem.DocumentSource{}.ReadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			manager, err := newManager(opts)
			if err != nil {
				return err
			}

			var validator publishapp.Validator
			if validate {
				validator = schema.JSONSchemaValidator{}
			}
			service := publishapp.NewService(
				validator,
				jsonpatch.Differ{},
				hash.Fingerprinter{Canonicalizer: canonicaljson.Canonicalizer{}},
				platform.RealClock{},
				platform.Component(opts.Logger, "publish"),
			)

			var result publishapp.Result
			spin := spinnerEnabled(cmd.ErrOrStderr(), opts.JSONOutput)
			err = withSpinner(cmd.Context(), cmd.ErrOrStderr(), spin, "Publishing schema...", func() error {
				return manager.WithCollection(cmd.Context(), collection, func(coll dbcontext.Collection) error {
					var err error
					result, err = service.Publish(cmd.Context(), coll, publishapp.Request{
						Name:   name,
						Group:  group,
						Schema: candidate,
						DryRun: dryRun,
					})
					return err
				})
			})
			if err != nil {
				return err
			}
			return writePublishResult(cmd, result, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Schema name")
	cmd.Flags().StringVar(&group, "group", "", "Schema group")
	cmd.Flags().StringVar(&collection, "collection", defaultSchemaCollection, "Collection holding schema records")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify without storing")
	cmd.Flags().BoolVar(&validate, "validate", true, "Compile the schema as JSON Schema before publishing")
	return cmd
}

func newInsertCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <collection> <file>",
		Short: "Insert documents from a JSON or YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := filesystem.DocumentSource{}.ReadDocuments(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			manager, err := newManager(opts)
			if err != nil {
				return err
			}
			var ids []string
			err = manager.WithCollection(cmd.Context(), args[0], func(coll dbcontext.Collection) error {
				var err error
				ids, err = coll.Insert(cmd.Context(), docs...)
				return err
			})
			if err != nil {
				return err
			}
			return writeInsertResult(cmd, ids, opts.JSONOutput)
		},
	}
}

func newFindCmd(opts *RootOptions) *cobra.Command {
	var filter string
	var one bool
	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "Find documents matching an exact filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFilter(filter)
			if err != nil {
				return err
			}
			manager, err := newManager(opts)
			if err != nil {
				return err
			}
			var docs []domain.Document
			err = manager.WithCollection(cmd.Context(), args[0], func(coll dbcontext.Collection) error {
				if !one {
					var err error
					docs, err = coll.Find(cmd.Context(), parsed)
					return err
				}
				doc, found, err := dbcontext.FindOne(cmd.Context(), coll, parsed)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%w in %s", ErrDocumentNotFound, args[0])
				}
				docs = []domain.Document{doc}
				return nil
			})
			if err != nil {
				return err
			}
			return writeDocuments(cmd, docs, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "JSON object every result must match")
	cmd.Flags().BoolVar(&one, "one", false, "Return only the first match")
	return cmd
}

func newVerifyCmd(opts *RootOptions) *cobra.Command {
	var collection string
	var deep bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored schema records and their version history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := newManager(opts)
			if err != nil {
				return err
			}
			var result integrityapp.VerifyResult
			err = manager.WithCollection(cmd.Context(), collection, func(coll dbcontext.Collection) error {
				var err error
				result, err = integrityapp.NewVerifyService().Verify(cmd.Context(), coll, integrityapp.VerifyOptions{Deep: deep})
				return err
			})
			if err != nil {
				return err
			}
			if err := writeVerifyResult(cmd, result, opts.JSONOutput); err != nil {
				return err
			}
			if len(result.Issues) > 0 {
				return ExitError{
					Code:    ExitIntegrity,
					Kind:    KindIntegrity,
					Message: fmt.Sprintf("%d issue(s) found", len(result.Issues)),
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&collection, "collection", defaultSchemaCollection, "Collection holding schema records")
	cmd.Flags().BoolVar(&deep, "deep", false, "Replay each history and check version bumps against diffs")
	return cmd
}

type changeOutput struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Old      any    `json:"old,omitempty"`
	New      any    `json:"new,omitempty"`
}

type compareOutput struct {
	Severity string         `json:"severity"`
	Changes  []changeOutput `json:"changes"`
}

type recordOutput struct {
	SchemaGroup string          `json:"schema_group"`
	SchemaName  string          `json:"schema_name"`
	Version     string          `json:"version"`
	Schema      domain.Document `json:"schema"`
	PublishedAt string          `json:"published_at,omitempty"`
}

type publishOutput struct {
	SchemaGroup     string          `json:"schema_group"`
	SchemaName      string          `json:"schema_name"`
	Severity        string          `json:"severity"`
	PreviousVersion string          `json:"previous_version,omitempty"`
	Version         string          `json:"version"`
	Stored          bool            `json:"stored"`
	ID              string          `json:"id,omitempty"`
	Fingerprint     string          `json:"fingerprint"`
	MergePatch      json.RawMessage `json:"merge_patch,omitempty"`
	PublishedAt     string          `json:"published_at,omitempty"`
	Changes         []changeOutput  `json:"changes"`
}

type verifyOutput struct {
	Records int                 `json:"records"`
	Schemas int                 `json:"schemas"`
	Valid   int                 `json:"valid"`
	Issues  []verifyIssueOutput `json:"issues,omitempty"`
}

type verifyIssueOutput struct {
	Schema  string `json:"schema"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type insertOutput struct {
	IDs []string `json:"ids"`
}

type findOutput struct {
	Documents []domain.Document `json:"documents"`
}

func writeCompareResult(cmd *cobra.Command, report diff.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, compareOutput{
			Severity: report.Severity.String(),
			Changes:  changeOutputs(report.Changes),
		})
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Update", colorSeverity(ui, report.Severity)); err != nil {
		return err
	}
	return writeChanges(out, ui, report.Changes)
}

func writeRecord(cmd *cobra.Command, record domain.Record, asJSON bool) error {
	out := cmd.OutOrStdout()
	publishedAt := ""
	if !record.PublishedAt.IsZero() {
		publishedAt = record.PublishedAt.Format("2006-01-02T15:04:05.999999999Z07:00")
	}
	if asJSON {
		return writeJSON(out, recordOutput{
			SchemaGroup: record.SchemaGroup,
			SchemaName:  record.SchemaName,
			Version:     record.Version,
			Schema:      record.Schema,
			PublishedAt: publishedAt,
		})
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Schema", record.SchemaGroup+"/"+record.SchemaName); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Version", record.Version); err != nil {
		return err
	}
	if publishedAt != "" {
		if err := writeKV(out, ui, "Published", publishedAt); err != nil {
			return err
		}
	}
	body, err := json.MarshalIndent(record.Schema, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", body)
	return err
}

func writePublishResult(cmd *cobra.Command, result publishapp.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	publishedAt := ""
	if !result.PublishedAt.IsZero() {
		publishedAt = result.PublishedAt.Format("2006-01-02T15:04:05.999999999Z07:00")
	}
	if asJSON {
		return writeJSON(out, publishOutput{
			SchemaGroup:     result.Group,
			SchemaName:      result.Name,
			Severity:        result.Severity.String(),
			PreviousVersion: result.PreviousVersion,
			Version:         result.Version,
			Stored:          result.Stored,
			ID:              result.ID,
			Fingerprint:     result.Fingerprint,
			MergePatch:      rawJSON(result.MergePatch),
			PublishedAt:     publishedAt,
			Changes:         changeOutputs(result.Changes),
		})
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Schema", result.Group+"/"+result.Name); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Update", colorSeverity(ui, result.Severity)); err != nil {
		return err
	}
	version := result.Version
	if result.PreviousVersion != "" && result.PreviousVersion != result.Version {
		version = result.PreviousVersion + " -> " + result.Version
	}
	if err := writeKV(out, ui, "Version", version); err != nil {
		return err
	}
	stored := ui.dim("no")
	if result.Stored {
		stored = ui.ok("yes") + " " + ui.dim(result.ID)
	}
	if err := writeKV(out, ui, "Stored", stored); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Fingerprint", result.Fingerprint); err != nil {
		return err
	}
	return writeChanges(out, ui, result.Changes)
}

func writeVerifyResult(cmd *cobra.Command, result integrityapp.VerifyResult, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		output := verifyOutput{
			Records: result.Records,
			Schemas: result.Schemas,
			Valid:   result.Valid,
		}
		for _, issue := range result.Issues {
			output.Issues = append(output.Issues, verifyIssueOutput{
				Schema:  issue.Schema,
				Version: issue.Version,
				Code:    issue.Code,
				Message: issue.Message,
			})
		}
		return writeJSON(out, output)
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Records", fmt.Sprintf("%d", result.Records)); err != nil {
		return err
	}
	valid := fmt.Sprintf("%d/%d", result.Valid, result.Schemas)
	if result.Valid == result.Schemas {
		valid = ui.ok(valid)
	} else {
		valid = ui.warn(valid)
	}
	if err := writeKV(out, ui, "Valid", valid); err != nil {
		return err
	}
	for _, issue := range result.Issues {
		label := issue.Schema
		if issue.Version != "" {
			label += "@" + issue.Version
		}
		if _, err := fmt.Fprintf(out, "  %s %s: %s\n", ui.err(issue.Code), label, issue.Message); err != nil {
			return err
		}
	}
	return nil
}

func writeInsertResult(cmd *cobra.Command, ids []string, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(out, insertOutput{IDs: ids})
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Inserted", fmt.Sprintf("%d", len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintf(out, "  %s\n", ui.dim(id)); err != nil {
			return err
		}
	}
	return nil
}

func writeDocuments(cmd *cobra.Command, docs []domain.Document, asJSON bool) error {
	out := cmd.OutOrStdout()
	if docs == nil {
		docs = []domain.Document{}
	}
	if asJSON {
		return writeJSON(out, findOutput{Documents: docs})
	}
	for _, doc := range docs {
		line, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeChanges(out io.Writer, ui renderer, changes []diff.Change) error {
	if len(changes) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out, ui.key("Changes")+":"); err != nil {
		return err
	}
	for _, change := range changes {
		if _, err := fmt.Fprintf(out, "  %-8s %s %s\n", colorKind(ui, change.Kind), change.Path, ui.dim("("+change.Severity.String()+")")); err != nil {
			return err
		}
	}
	return nil
}

func changeOutputs(changes []diff.Change) []changeOutput {
	outputs := make([]changeOutput, 0, len(changes))
	for _, change := range changes {
		outputs = append(outputs, changeOutput{
			Path:     change.Path,
			Kind:     string(change.Kind),
			Severity: change.Severity.String(),
			Old:      change.Old,
			New:      change.New,
		})
	}
	return outputs
}

func newManager(opts *RootOptions) (*dbcontext.Manager, error) {
	logger := platform.Component(opts.Logger, "store")
	opener, err := storage.NewOpener(opts.Config, logger)
	if err != nil {
		return nil, err
	}
	return dbcontext.NewManager(opener, logger), nil
}

func parseFilter(value string) (domain.Document, error) {
	if strings.TrimSpace(value) == "" {
		return domain.Document{}, nil
	}
	decoded, err := filesystem.Decode([]byte(value), filesystem.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	entries, ok := domain.AsMapping(decoded)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be a JSON object", filesystem.ErrDocumentNotObject)
	}
	return domain.Document(entries), nil
}

func writeJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func rawJSON(data []byte) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}
