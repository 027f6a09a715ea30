// seed loads development sample data into the configured store: the bootstrap super admin, one leader
// per seed department and a few members, plus an agenda entry. Idempotent: members are matched by name.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"iesa-console/backend/internal/app"
	"iesa-console/backend/internal/config"
	"iesa-console/backend/internal/department"
	eventdomain "iesa-console/backend/internal/event/domain"
	identitydomain "iesa-console/backend/internal/identity/domain"
	"iesa-console/backend/internal/logger"
	memberdomain "iesa-console/backend/internal/member/domain"
)

const (
	devAdminName = "IESA GERIZIM"
	devAdminCode = "Gerizim2026"
)

type sample struct {
	name, dept, birth string
	role              memberdomain.Role
}

var samples = []sample{
	{"Pedro Manuel", "DCIESA", "2007-06-15", memberdomain.RoleMember},
	{"Rita Domingos", "JIESA", "1998-02-11", memberdomain.RoleMember},
	{"Marta Kiala", "SHIESA", "1985-09-30", memberdomain.RoleMember},
	{"Ana Baptista", memberdomain.GeneralDepartment, "1979-04-02", memberdomain.RoleSecretary},
}

func main() {
	withEvent := pflag.Bool("event", true, "also add a sample agenda entry")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, ServiceName: "iesa-seed", Pretty: true})
	ctx := context.Background()

	console, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("console")
	}
	defer console.Close()

	name, code := cfg.BootstrapAdminName, cfg.BootstrapAdminCode
	if name == "" {
		name, code = devAdminName, devAdminCode
	}
	admin, created, err := console.EnsureSuperAdmin(ctx, name, code)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	log.Info().Str("name", admin.Name).Bool("created", created).Msg("super admin")

	for _, d := range department.Defaults() {
		leader := "Líder " + d.Name
		m, created, err := console.Members.EnsureMember(ctx, memberdomain.Patch{
			Name:       memberdomain.Ptr(leader),
			Role:       memberdomain.Ptr(memberdomain.RoleDeptLeader),
			Department: memberdomain.Ptr(d.ID),
			RoleInDept: memberdomain.Ptr(d.Roles[0]),
		})
		if err != nil {
			log.Fatal().Err(err).Str("department", d.ID).Msg("seed leader")
		}
		logSeeded(log, m, created)
	}

	for _, s := range samples {
		m, created, err := console.Members.EnsureMember(ctx, memberdomain.Patch{
			Name:       memberdomain.Ptr(s.name),
			Role:       memberdomain.Ptr(s.role),
			Department: memberdomain.Ptr(s.dept),
			BirthDate:  memberdomain.Ptr(s.birth),
		})
		if err != nil {
			log.Fatal().Err(err).Str("name", s.name).Msg("seed member")
		}
		logSeeded(log, m, created)
	}

	res, err := console.RunTransitionSweep(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep")
	}
	log.Info().Int("transitioned", len(res.Transitioned)).Int("skipped", res.Skipped).Msg("transition sweep")

	if *withEvent && len(console.Events.List(ctx, "Culto Geral")) == 0 {
		_, err := console.Events.Create(ctx, identitydomain.FromMember(admin), eventdomain.Input{
			Type:     "Culto Geral",
			Title:    "Culto de Domingo",
			Date:     "2026-01-04",
			Time:     "09:00",
			Location: department.Branches()[0],
		})
		if err != nil {
			log.Fatal().Err(err).Msg("seed event")
		}
	}
	log.Info().Int("members", console.Members.Len()).Msg("seed done")
}

// logSeeded prints the issued access code of new members; existing ones keep theirs.
func logSeeded(log zerolog.Logger, m *memberdomain.Member, created bool) {
	ev := log.Info().Str("name", m.Name).Str("department", m.Department).Bool("created", created)
	if created {
		ev = ev.Str("access_code", m.AccessCode)
	}
	ev.Msg("member")
}
