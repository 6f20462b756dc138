// ABOUTME: Subcommand implementations for the braindump CLI
// ABOUTME: Flag parsing, engine calls, and tabwriter/color output per verb

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/salmanrrana/brain-dump-sub000/internal/conversation"
	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD argument.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q (want YYYY-MM-DD): %w", value, err)
	}
	return t.UTC(), nil
}

// endOfDay pushes an inclusive end date to the last second of that day.
func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Second)
}

func runStart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	projectID := fs.String("project", "", "Project ID to link")
	ticketID := fs.String("ticket", "", "Ticket ID to link")
	userID := fs.String("user", "", "User identifier")
	classification := fs.String("classification", "", "Data classification (public|internal|confidential|restricted)")
	metaRaw := fs.String("meta", "", "Metadata as JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var metadata map[string]any
	if *metaRaw != "" {
		if err := json.Unmarshal([]byte(*metaRaw), &metadata); err != nil {
			return fmt.Errorf("parsing --meta: %w", err)
		}
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.svc.Start(ctx, conversation.StartParams{
		ProjectID:          *projectID,
		TicketID:           *ticketID,
		UserID:             *userID,
		Metadata:           metadata,
		DataClassification: *classification,
	})
	if err != nil {
		return err
	}

	color.Green("✓ started session %s", res.SessionID)
	fmt.Printf("  environment:    %s\n", res.Environment)
	fmt.Printf("  classification: %s\n", res.DataClassification)
	if res.ProjectID != "" {
		fmt.Printf("  project:        %s\n", res.ProjectID)
	}
	if res.TicketID != "" {
		fmt.Printf("  ticket:         %s\n", res.TicketID)
	}
	return nil
}

func runLog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	sessionID := fs.String("session", "", "Session ID (required)")
	role := fs.String("role", "", "Message role: user|assistant|system|tool (required)")
	content := fs.String("content", "", "Message content (required; - reads stdin)")
	model := fs.String("model", "", "Model identifier")
	tokens := fs.Int("tokens", 0, "Token count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" || *role == "" || *content == "" {
		return fmt.Errorf("log requires --session, --role, and --content")
	}

	body := *content
	if body == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		body = string(data)
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.svc.LogMessage(ctx, conversation.LogParams{
		SessionID:  *sessionID,
		Role:       *role,
		Content:    body,
		TokenCount: *tokens,
		ModelID:    *model,
	})
	if err != nil {
		return err
	}

	color.Green("✓ logged message %s (seq %d)", res.MessageID, res.Seq)
	if res.ContainsPotentialSecrets {
		color.Yellow("  ⚠ content flagged as potentially containing secrets")
	}
	return nil
}

func runEnd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("end", flag.ExitOnError)
	sessionID := fs.String("session", "", "Session ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("end requires --session")
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.svc.End(ctx, *sessionID)
	if err != nil {
		return err
	}

	if res.AlreadyEnded {
		color.Yellow("session %s was already ended at %s (%d messages)",
			res.SessionID, res.EndedAt.Format(time.RFC3339), res.MessageCount)
		return nil
	}
	color.Green("✓ ended session %s (%d messages)", res.SessionID, res.MessageCount)
	return nil
}

func runHold(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("hold", flag.ExitOnError)
	sessionID := fs.String("session", "", "Session ID (required)")
	release := fs.Bool("release", false, "Release the hold instead of setting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("hold requires --session")
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	held := !*release
	if err := env.svc.SetLegalHold(ctx, *sessionID, held); err != nil {
		return err
	}

	if held {
		color.Green("✓ legal hold set on %s", *sessionID)
	} else {
		color.Green("✓ legal hold released on %s", *sessionID)
	}
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	projectID := fs.String("project", "", "Filter by project ID")
	ticketID := fs.String("ticket", "", "Filter by ticket ID")
	environment := fs.String("env", "", "Filter by environment label")
	since := fs.String("since", "", "Sessions started on or after (YYYY-MM-DD)")
	until := fs.String("until", "", "Sessions started on or before (YYYY-MM-DD)")
	endedOnly := fs.Bool("ended-only", false, "Exclude open sessions")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := conversation.ListFilter{
		ProjectID:   *projectID,
		TicketID:    *ticketID,
		Environment: *environment,
		Limit:       *limit,
	}
	if *since != "" {
		t, err := parseDate(*since)
		if err != nil {
			return err
		}
		filter.StartedAfter = t
	}
	if *until != "" {
		t, err := parseDate(*until)
		if err != nil {
			return err
		}
		filter.StartedBefore = endOfDay(t)
	}
	if *endedOnly {
		include := false
		filter.IncludeActive = &include
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	summaries, err := env.svc.List(ctx, filter)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("(no sessions)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTARTED\tSTATE\tMSGS\tENV\tCLASS\tPROJECT\tHOLD")
	for _, s := range summaries {
		state := "ended"
		if s.IsActive {
			state = "active"
		}
		hold := ""
		if s.LegalHold {
			hold = "HELD"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			shortID(s.SessionID),
			s.StartedAt.Format("2006-01-02 15:04"),
			state,
			s.MessageCount,
			s.Environment,
			s.DataClassification,
			s.ProjectName,
			hold,
		)
	}
	return w.Flush()
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	from := fs.String("from", "", "Range start (YYYY-MM-DD, required)")
	to := fs.String("to", "", "Range end (YYYY-MM-DD, required)")
	sessionID := fs.String("session", "", "Narrow to one session")
	projectID := fs.String("project", "", "Narrow to one project")
	noContent := fs.Bool("no-content", false, "Redact message bodies")
	noVerify := fs.Bool("no-verify", false, "Skip integrity verification")
	out := fs.String("out", "", "Write the export document to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" {
		return fmt.Errorf("export requires --from and --to")
	}

	start, err := parseDate(*from)
	if err != nil {
		return err
	}
	end, err := parseDate(*to)
	if err != nil {
		return err
	}

	params := conversation.ExportParams{
		StartDate: start,
		EndDate:   endOfDay(end),
		SessionID: *sessionID,
		ProjectID: *projectID,
	}
	if *noContent {
		include := false
		params.IncludeContent = &include
	}
	if *noVerify {
		verify := false
		params.VerifyIntegrity = &verify
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	export, err := env.svc.Export(ctx, params)
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	if *out != "" {
		if err := os.WriteFile(*out, doc, 0600); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		color.Green("✓ export %s written to %s", export.ExportID, *out)
	} else {
		fmt.Println(string(doc))
	}

	fmt.Fprintf(os.Stderr, "sessions: %d, messages: %d\n", export.SessionCount, export.MessageCount)
	if export.Integrity != nil {
		if export.Integrity.Passed {
			color.Green("✓ integrity check passed (%d messages)", export.Integrity.TotalMessages)
		} else {
			color.Red("✗ integrity check FAILED: %d of %d messages invalid",
				export.Integrity.InvalidMessages, export.Integrity.TotalMessages)
			for _, id := range export.Integrity.InvalidMessageIDs {
				color.Red("    %s", id)
			}
		}
	}
	return nil
}

func runArchive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	days := fs.Int("days", 0, "Retention window in days (0 = configured default)")
	confirm := fs.Bool("confirm", false, "Actually delete; without this flag the run is a preview")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := env.svc.Archive(ctx, conversation.ArchiveParams{
		RetentionDays: *days,
		Confirm:       *confirm,
	})
	if err != nil {
		return err
	}

	mode := "DRY RUN"
	if !result.DryRun {
		mode = "DELETED"
	}
	fmt.Printf("%s — retention %d days, cutoff %s\n",
		mode, result.RetentionDays, result.Cutoff.Format(time.RFC3339))

	if result.LegalHoldExcluded > 0 {
		color.Yellow("  %d session(s) past the cutoff are excluded by legal hold", result.LegalHoldExcluded)
	}

	if result.SessionsAffected == 0 {
		fmt.Println("  nothing to archive")
		return nil
	}

	if result.DryRun {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tSTARTED\tMSGS\tENV\tCLASS\tPROJECT")
		for _, p := range result.Preview {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				shortID(p.SessionID),
				p.StartedAt.Format("2006-01-02"),
				p.MessageCount,
				p.Environment,
				p.DataClassification,
				p.ProjectName,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		color.Yellow("would delete %d session(s), %d message(s) — re-run with --confirm to proceed",
			result.SessionsAffected, result.MessagesAffected)
		return nil
	}

	color.Green("✓ deleted %d session(s), %d message(s)",
		result.SessionsAffected, result.MessagesAffected)
	return nil
}

func runTrail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trail", flag.ExitOnError)
	action := fs.String("action", "", "Filter by action (export|dry_run|delete|set_legal_hold)")
	limit := fs.Int("limit", 100, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	filter := store.AccessFilter{Limit: *limit}
	if *action != "" {
		filter.Action = action
	}

	records, err := env.store.ListAccessLog(ctx, filter)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("(no access records)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tTARGET\tRESULT")
	for _, r := range records {
		result := ""
		if r.Result != nil {
			result = *r.Result
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Action,
			r.TargetType+"/"+r.TargetID,
			result,
		)
	}
	return w.Flush()
}

func runProject(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: braindump project add|list")
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("project add", flag.ExitOnError)
		name := fs.String("name", "", "Project name (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("project add requires --name")
		}
		p := &store.Project{ID: uuid.New().String(), Name: *name, CreatedAt: time.Now().UTC()}
		if err := env.store.CreateProject(ctx, p); err != nil {
			return err
		}
		color.Green("✓ created project %s (%s)", p.Name, p.ID)
		return nil

	case "list":
		projects, err := env.store.ListProjects(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("(no projects)")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown project subcommand: %s", args[0])
	}
}

func runTicket(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: braindump ticket add|list")
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("ticket add", flag.ExitOnError)
		title := fs.String("title", "", "Ticket title (required)")
		projectID := fs.String("project", "", "Project ID to link")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *title == "" {
			return fmt.Errorf("ticket add requires --title")
		}
		t := &store.Ticket{ID: uuid.New().String(), Title: *title, CreatedAt: time.Now().UTC()}
		if *projectID != "" {
			if _, err := env.store.GetProject(ctx, *projectID); err != nil {
				return err
			}
			t.ProjectID = projectID
		}
		if err := env.store.CreateTicket(ctx, t); err != nil {
			return err
		}
		color.Green("✓ created ticket %q (%s)", t.Title, t.ID)
		return nil

	case "list":
		tickets, err := env.store.ListTickets(ctx)
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			fmt.Println("(no tickets)")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPROJECT\tCREATED")
		for _, t := range tickets {
			project := ""
			if t.ProjectID != nil {
				project = *t.ProjectID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Title, project, t.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown ticket subcommand: %s", args[0])
	}
}

// shortID trims a UUID to its first segment for table display.
func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 && len(id) == 36 {
		return id[:i]
	}
	return id
}
