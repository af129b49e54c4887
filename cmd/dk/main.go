package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docketline/internal/app"
	"docketline/internal/board"
	"docketline/internal/classify"
	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/migrate"
	"docketline/internal/repo"
	"docketline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "dk",
	Short: "Docketline CLI",
	Long: `Docketline turns incoming legal filings into a managed docket.
Core concepts:
- Workspace: your .docketline directory holding the database; docketline.yml beside it configures the matter.
- Matter: one case (title, case number, court, jurisdiction) that owns all filings, deadlines, and actions.
- Filings: ingested documents, classified by type (Complaint, Motion, Discovery Request, ...) with filed/served/hearing dates extracted from the text.
- Rules: the jurisdiction's deadline catalog (FRCP, CCP, local rules) seeded per jurisdiction; each rule maps a trigger document to an offset in days.
- Deadlines: concrete due dates computed from a filing's anchor date and the matching rules.
- Actions: work items derived from open deadlines; statuses go draft -> review -> final -> file -> served -> confirmed, with a full audit trail.
- Drafts: first-draft response documents (discovery responses, opposition memos) generated from an action.
- Event log: diary of everything that happened, view with 'dk log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DOCKETLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("matter", "", "matter id (defaults to the workspace's only matter)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("matter", rootCmd.PersistentFlags().Lookup("matter"))
}

func registerCommands() {
	rootCmd.AddCommand(matterCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(filingCmd())
	rootCmd.AddCommand(deadlineCmd())
	rootCmd.AddCommand(actionCmd())
	rootCmd.AddCommand(draftCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func matterCmd() *cobra.Command {
	m := &cobra.Command{Use: "matter", Short: "Manage matters"}
	m.AddCommand(matterInitCmd())
	m.AddCommand(matterListCmd())
	m.AddCommand(matterShowCmd())
	m.AddCommand(matterStatusCmd())
	return m
}

func matterInitCmd() *cobra.Command {
	var title, caseNumber, court, jurisdiction string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a matter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title required")
			}
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := app.ResolveConfig(workspace, jurisdiction)
			if err != nil {
				return err
			}
			e := wireCapabilities(engine.New(conn, cfg))
			m, err := e.InitMatter(cmd.Context(), title, caseNumber, court, jurisdiction, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(m)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "matter title")
	cmd.Flags().StringVar(&caseNumber, "case-number", "", "court case number")
	cmd.Flags().StringVar(&court, "court", "", "court name (defaults from jurisdiction catalog)")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction key (defaults from config)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func matterListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListMatters(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Case Number", "Court", "Jurisdiction", "Status"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ID, m.Title, m.CaseNumber, m.Court, m.Jurisdiction, m.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func matterShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current matter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

func matterStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show matter status and docket phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				phase, err := e.CasePhase(ctx, m.ID)
				if err != nil {
					return err
				}
				filings, err := e.Repo.CountFilings(ctx, m.ID, "")
				if err != nil {
					return err
				}
				pending, err := e.Repo.ListDeadlines(ctx, m.ID, "pending")
				if err != nil {
					return err
				}
				open, err := e.Repo.OpenActions(ctx, m.ID)
				if err != nil {
					return err
				}
				out := map[string]any{
					"matter_id":         m.ID,
					"title":             m.Title,
					"status":            m.Status,
					"phase":             phase,
					"filings":           filings,
					"pending_deadlines": len(pending),
					"open_actions":      len(open),
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("Matter: %s (%s)\n", m.Title, m.Status)
				fmt.Printf("Phase: %s\n", phase)
				fmt.Printf("Filings: %d\n", filings)
				fmt.Printf("Pending deadlines: %d\n", len(pending))
				fmt.Printf("Open actions: %d\n", len(open))
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config is docketline.yml in the workspace: the default jurisdiction, classifier settings, per-jurisdiction rule catalogs, and optional board/calendar integrations.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var jurisdiction string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default docketline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(jurisdiction)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "federal", "default jurisdiction key")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate docketline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func filingCmd() *cobra.Command {
	f := &cobra.Command{
		Use:   "filing",
		Short: "Manage filings",
		Long:  "Filings are ingested documents. Ingestion classifies the document, extracts filed/served/hearing dates, applies the jurisdiction's deadline rules, and derives actions in one pass.",
	}
	f.AddCommand(filingIngestCmd())
	f.AddCommand(filingListCmd())
	f.AddCommand(filingShowCmd())
	return f
}

func filingIngestCmd() *cobra.Command {
	var filePath, name, uploadedAt, assignee string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a document's extracted text",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			fileName := name
			if fileName == "" {
				fileName = filepath.Base(filePath)
			}
			var uploaded time.Time
			if uploadedAt != "" {
				uploaded, err = time.Parse(time.RFC3339, uploadedAt)
				if err != nil {
					return fmt.Errorf("invalid --uploaded-at: %w", err)
				}
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				res, err := e.IngestFiling(ctx, engine.IngestOptions{
					MatterID:   m.ID,
					FileName:   fileName,
					Text:       string(data),
					UploadedAt: uploaded,
					AssigneeID: assignee,
					ActorID:    viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Ingested %s as %s (%s, confidence %.2f)\n", res.Filing.FileName, res.Filing.DocType, res.Filing.Category, res.Filing.Confidence)
				fmt.Printf("Deadlines created: %d\n", len(res.Deadlines))
				for _, d := range res.Deadlines {
					due := "(no due date)"
					if d.DueDate != nil {
						due = *d.DueDate
					}
					fmt.Printf("  %s due %s [%s]\n", d.Title, due, d.Criticality)
				}
				fmt.Printf("Actions created: %d\n", len(res.ActionIDs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to extracted text file")
	cmd.Flags().StringVar(&name, "name", "", "original file name (defaults to the file's base name)")
	cmd.Flags().StringVar(&uploadedAt, "uploaded-at", "", "upload timestamp (RFC3339, defaults to now)")
	cmd.Flags().StringVar(&assignee, "assignee-id", "", "assignee for derived actions")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func filingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List filings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.Repo.ListFilings(ctx, m.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Subtype", "Category", "Confidence", "Filed", "Served", "File"})
				for _, f := range items {
					tw.AppendRow(table.Row{
						f.ID, f.DocType, strVal(f.DocSubtype), f.Category,
						fmt.Sprintf("%.2f", f.Confidence),
						dateVal(f.FiledDate), dateVal(f.ServedDate), f.FileName,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func filingShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a filing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				f, err := e.Repo.GetFiling(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	return cmd
}

func deadlineCmd() *cobra.Command {
	d := &cobra.Command{
		Use:   "deadline",
		Short: "Manage deadlines",
		Long:  "Deadlines are concrete due dates computed from a filing's anchor date (served beats filed) and the jurisdiction's rule catalog. Re-applying rules never duplicates a deadline.",
	}
	d.AddCommand(deadlineListCmd())
	d.AddCommand(deadlineApplyCmd())
	return d
}

func deadlineListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.Repo.ListDeadlines(ctx, m.ID, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Due", "Criticality", "Status"})
				for _, d := range items {
					due := ""
					if d.DueDate != nil {
						due = *d.DueDate
					}
					tw.AppendRow(table.Row{d.ID, d.Title, due, d.Criticality, d.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (pending, in-progress, completed)")
	return cmd
}

func deadlineApplyCmd() *cobra.Command {
	var filingID string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply deadline rules to a filing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filingID == "" {
				return fmt.Errorf("--filing required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				created, err := e.ApplyDeadlineRules(ctx, filingID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&filingID, "filing", "", "filing id")
	_ = cmd.MarkFlagRequired("filing")
	return cmd
}

func actionCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "action",
		Short: "Manage actions",
		Long:  "Actions are the work items behind open deadlines. Statuses go draft -> review -> final -> file -> served -> confirmed; marking served or confirmed completes the linked deadline. Every change lands in the action's audit trail.",
	}
	a.AddCommand(actionListCmd())
	a.AddCommand(actionNextCmd())
	a.AddCommand(actionGenerateCmd())
	a.AddCommand(actionStatusCmd())
	a.AddCommand(actionAuditCmd())
	a.AddCommand(actionRefreshCmd())
	return a
}

func actionListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.Repo.ListActions(ctx, m.ID, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printActionTable(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func actionNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Preview next actions without persisting them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.GenerateNextActions(ctx, m.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printActionTable(items)
				return nil
			})
		},
	}
	return cmd
}

func actionGenerateCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create actions from open deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				ids, err := e.CreateActionsFromDeadlines(ctx, m.ID, assignee, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(ids)
				}
				fmt.Printf("Created %d action(s)\n", len(ids))
				for _, id := range ids {
					fmt.Println(" ", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee-id", "", "assignee id")
	return cmd
}

func actionStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Set action status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status == "" {
				return fmt.Errorf("--status required")
			}
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				a, err := e.UpdateActionStatus(ctx, id, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status (draft, review, final, file, served, confirmed)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func actionAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <id>",
		Short: "Show action audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				entries, err := e.Repo.ListAudit(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	return cmd
}

func actionRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute days remaining and priority for open actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.RefreshActionSchedules(ctx, m.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printActionTable(items)
				return nil
			})
		},
	}
	return cmd
}

func draftCmd() *cobra.Command {
	d := &cobra.Command{
		Use:   "draft",
		Short: "Manage draft documents",
		Long:  "Drafts are first-pass response documents (discovery responses, opposition memos) generated from an action and its triggering filing. Not every action yields a draft.",
	}
	d.AddCommand(draftGenerateCmd())
	d.AddCommand(draftListCmd())
	d.AddCommand(draftShowCmd())
	return d
}

func draftGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <action-id>",
		Short: "Generate a first draft for an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				d, err := e.GenerateDraftForAction(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if d == nil {
					if viper.GetBool("json") {
						return printJSON(map[string]any{"draft": nil})
					}
					fmt.Println("No template applies to this action.")
					return nil
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				fmt.Printf("Generated %s draft %s: %s\n", d.TemplateType, d.ID, d.Title)
				return nil
			})
		},
	}
	return cmd
}

func draftListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				items, err := e.Repo.ListDrafts(ctx, m.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Template", "Title", "Created"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.TemplateType, d.Title, d.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func draftShowCmd() *cobra.Command {
	var contentOnly bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Matter) error {
				d, err := e.Repo.GetDraft(ctx, id)
				if err != nil {
					return err
				}
				if contentOnly {
					fmt.Println(d.Content)
					return nil
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().BoolVar(&contentOnly, "content", false, "print only the draft body")
	return cmd
}

func boardCmd() *cobra.Command {
	b := &cobra.Command{Use: "board", Short: "Task board integration"}
	b.AddCommand(boardSyncCmd())
	return b
}

func boardSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create board tasks for open actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				linked, err := e.CreateBoardTasksFromActions(ctx, m.ID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(linked)
				}
				fmt.Printf("Linked %d action(s) to board tasks\n", len(linked))
				return nil
			})
		},
	}
	return cmd
}

func rulesCmd() *cobra.Command {
	var jurisdiction string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List deadline rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				j := jurisdiction
				if j == "" {
					j = m.Jurisdiction
				}
				if _, err := e.SeedJurisdiction(ctx, j, viper.GetString("actor-id")); err != nil {
					return err
				}
				items, err := e.Repo.ListRules(ctx, j)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Source", "Trigger", "Subtype", "Offset", "Criticality", "Action"})
				for _, r := range items {
					tw.AppendRow(table.Row{r.Source, r.TriggerType, strVal(r.TriggerSubtype), r.OffsetDays, r.Criticality, r.ActionRequired})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction key (defaults to the matter's)")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: filings ingested, deadlines created, action status changes, and more.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, m domain.Matter) error {
				events, err := e.Repo.LatestEvents(ctx, n, m.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := loadServeConfig(cmd.Context(), workspace, repo.Repo{DB: conn})
			if err != nil {
				return err
			}
			e := wireCapabilities(engine.New(conn, cfg))
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Docketline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

// loadServeConfig prefers the workspace config file; without one it falls
// back to the default catalog for the existing matter's jurisdiction, or
// federal when the workspace has no matter yet.
func loadServeConfig(ctx context.Context, workspace string, r repo.Repo) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	m, err := r.SingleMatter(ctx)
	if err != nil {
		return config.Default("federal"), nil
	}
	return config.Default(m.Jurisdiction), nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, domain.Matter) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	m, cfg, err := app.ResolveMatterAndConfig(ctx, workspace, viper.GetString("matter"), r)
	if err != nil {
		return err
	}
	e := wireCapabilities(engine.New(conn, cfg))
	return fn(ctx, e, m)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

// wireCapabilities attaches the optional classifier and board client. The
// classifier needs OPENAI_API_KEY; without it ingestion falls back to
// filename classification.
func wireCapabilities(e engine.Engine) engine.Engine {
	if e.Config == nil {
		return e
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		timeout := time.Duration(e.Config.Classifier.TimeoutSeconds) * time.Second
		e.Classifier = &classify.Classifier{
			Completer: classify.NewOpenAICompleter(e.Config.Classifier.Model, timeout),
			MaxChars:  e.Config.Classifier.MaxDocumentChars,
		}
	}
	if b := board.NewFromConfig(e.Config.Board); b != nil {
		e.Board = b
	}
	return e
}

func printActionTable(items []domain.Action) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Title", "Type", "Priority", "Days Left", "Status", "Assignee"})
	for _, a := range items {
		tw.AppendRow(table.Row{a.ID, a.Title, a.Type, a.Priority, a.DaysRemaining, a.Status, strVal(a.AssigneeID)})
	}
	tw.Render()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateVal(d *domain.ExtractedDate) string {
	if d == nil {
		return ""
	}
	return d.Value
}
