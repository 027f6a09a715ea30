// console is the admin command line for the IESA console store.
//
//	console register --as ADMIN --code CODE --name "Pedro" --dept DCIESA --birth 2007-06-15
//	console list [--as NAME --code CODE] [--search TERM] [--view DEPT]
//	console history --id ID [--as NAME --code CODE --type OTHER --desc "Moved to Sicar"]
//
// Writes act as the member named by --as, or as the member of the session saved by login.
//	console sweep
//	console login --name NAME --code CODE
//	console logout
//	console events [--search TERM]
//	console audit [--limit N]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"iesa-console/backend/internal/app"
	"iesa-console/backend/internal/config"
	"iesa-console/backend/internal/department"
	identitydomain "iesa-console/backend/internal/identity/domain"
	identityservice "iesa-console/backend/internal/identity/service"
	"iesa-console/backend/internal/logger"
	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/platform/rbac"
)

const usage = "usage: console <register|list|history|sweep|login|logout|events|audit> [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: "warn", ServiceName: "iesa-console-cli", Pretty: true})
	ctx := context.Background()

	c, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
	if _, err := c.Auth.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("session not restored")
	}
	err = run(ctx, c, os.Args[1], os.Args[2:], os.Stdout)
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *app.Console, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "register":
		return register(ctx, c, args, out)
	case "list":
		return list(ctx, c, args, out)
	case "history":
		return history(ctx, c, args, out)
	case "sweep":
		res, err := c.RunTransitionSweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "transitioned %d, skipped %d\n", len(res.Transitioned), res.Skipped)
		return nil
	case "login":
		return login(ctx, c, args, out)
	case "logout":
		return c.Logout(ctx)
	case "events":
		return events(ctx, c, args, out)
	case "audit":
		return auditLog(ctx, c, args, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func register(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	name := fs.String("name", "", "full name (required)")
	dept := fs.String("dept", "", "department id, e.g. DCIESA")
	birth := fs.String("birth", "", "birth date YYYY-MM-DD")
	role := fs.String("role", string(memberdomain.RoleMember), "role")
	branch := fs.String("branch", "", "branch (default from DEFAULT_BRANCH)")
	phone := fs.String("phone", "", "phone number")
	roleInDept := fs.String("dept-role", "", "role inside the department, e.g. Monitor")
	as, code := actorFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, err := actAs(ctx, c, *as, *code)
	if err != nil {
		return err
	}
	p := memberdomain.Patch{Name: name, Role: memberdomain.Ptr(memberdomain.Role(*role))}
	p.Department = optional(*dept)
	p.BirthDate = optional(*birth)
	p.Branch = optional(*branch)
	p.Phone = optional(*phone)
	p.RoleInDept = optional(*roleInDept)
	if *branch != "" && !department.IsBranch(*branch) {
		fmt.Fprintf(out, "warning: %q is not a known branch\n", *branch)
	}
	m, err := c.RegisterMember(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\taccess code %s\n", m.ID, m.Name, m.AccessCode)
	return nil
}

func actorFlags(fs *pflag.FlagSet) (as, code *string) {
	as = fs.String("as", "", "act as this member (requires --code)")
	code = fs.String("code", "", "access code for --as")
	return as, code
}

// actAs verifies the --as credentials and returns a context acting as that member. The console
// session is left untouched. Without --as the saved session, if any, acts.
func actAs(ctx context.Context, c *app.Console, name, code string) (context.Context, error) {
	if name == "" {
		return ctx, nil
	}
	id, err := c.Auth.Verify(ctx, name, code)
	if err != nil {
		return nil, fmt.Errorf("--as %s: %w", name, err)
	}
	return identitydomain.WithMemberID(ctx, id.MemberID), nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func list(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	as, code := actorFlags(fs)
	q := rbac.Query{}
	fs.StringVar(&q.Search, "search", "", "name search (lifts department scoping)")
	fs.StringVar(&q.View, "view", "", "department-bound view")
	fs.StringVar(&q.Department, "dept", "", "department filter")
	fs.StringVar(&q.Area, "area", "", "area filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, err := actAs(ctx, c, *as, *code)
	if err != nil {
		return err
	}
	members := c.Members.List()
	if *as != "" || c.Current(ctx) != nil {
		members = c.VisibleMembers(ctx, q)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tDEPARTMENT\tBRANCH\tBIRTH")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Role, m.Department, m.Branch, m.BirthDate)
	}
	return w.Flush()
}

func history(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	id := fs.String("id", "", "member id (required)")
	typ := fs.String("type", string(memberdomain.HistoryOther), "entry type")
	desc := fs.String("desc", "", "description")
	as, code := actorFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, err := actAs(ctx, c, *as, *code)
	if err != nil {
		return err
	}
	if *desc == "" {
		m, ok := c.Members.Get(*id)
		if !ok {
			return fmt.Errorf("member %q not found", *id)
		}
		for _, h := range m.History {
			fmt.Fprintf(out, "%s\t%s\t%s\n", h.Date.Format("2006-01-02"), h.Type, h.Description)
		}
		return nil
	}
	ok, err := c.AppendHistory(ctx, *id, memberdomain.HistoryEntry{Type: memberdomain.HistoryType(strings.ToUpper(*typ)), Description: *desc})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("member %q not found", *id)
	}
	fmt.Fprintln(out, "history entry added")
	return nil
}

func login(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	name := fs.String("name", "", "member name")
	code := fs.String("code", "", "access code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res := c.Login(ctx, *name, *code)
	if !res.Success {
		return fmt.Errorf("login: %w", identityservice.ErrInvalidCredentials)
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", res.Identity.Name, res.Identity.Role)
	return nil
}

func events(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("events", pflag.ContinueOnError)
	search := fs.String("search", "", "title or location search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tTITLE\tLOCATION\tDEPARTMENT")
	for _, e := range c.Events.List(ctx, *search) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Date, e.Time, e.Title, e.Location, e.Department)
	}
	return w.Flush()
}

func auditLog(ctx context.Context, c *app.Console, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("audit", pflag.ContinueOnError)
	limit := fs.IntP("limit", "n", 20, "entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := c.Audit.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tACTOR\tRESOURCE\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Action, e.Actor, e.Resource, e.Metadata)
	}
	return w.Flush()
}
