package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdomain "iesa-console/backend/internal/audit/domain"
	"iesa-console/backend/internal/config"
	eventdomain "iesa-console/backend/internal/event/domain"
	identitydomain "iesa-console/backend/internal/identity/domain"
	"iesa-console/backend/internal/kvstore"
	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/platform/rbac"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		StorageDriver:      config.StorageMemory,
		AccessCodePrefix:   "IESA",
		DefaultBranch:      "Centro",
		ChildrenDepartment: "DCIESA",
		YouthDepartment:    "JIESA",
		TransitionAge:      18,
		SweepDebounce:      "1h",
		SweepInterval:      "0",
		NotificationLimit:  50,
		AuditLimit:         100,
		PolicyEngine:       config.PolicyEngineStatic,
		CredentialScheme:   config.CredentialPlain,
		SessionIssuer:      "iesa-console",
		SessionTTL:         "1h",
	}
}

// keepOpen lets a memory store outlive the console that closes it.
type keepOpen struct{ kvstore.Store }

func (keepOpen) Close() error { return nil }

func codes() func(string) (string, error) {
	n := 1000
	return func(prefix string) (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func newConsole(t *testing.T, cfg *config.Config, store kvstore.Store) *Console {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	c, err := New(context.Background(), cfg, zerolog.Nop(),
		WithStore(store), WithClock(func() time.Time { return fixedNow }), WithCodeGenerator(codes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// register seeds a member straight into the store, as cmd/seed does.
func register(t *testing.T, c *Console, name string, role memberdomain.Role, dept, birth string) *memberdomain.Member {
	t.Helper()
	p := memberdomain.Patch{Name: memberdomain.Ptr(name), Role: memberdomain.Ptr(role), Department: memberdomain.Ptr(dept)}
	if birth != "" {
		p.BirthDate = memberdomain.Ptr(birth)
	}
	m, err := c.Members.Register(context.Background(), p)
	require.NoError(t, err)
	return m
}

func TestConsole_TransitionScenario(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)

	pedro := register(t, c, "Pedro", memberdomain.RoleMember, "DCIESA", "2007-06-15")
	rita := register(t, c, "Rita", memberdomain.RoleDeptLeader, "JIESA", "1990-01-01")

	res := c.Login(ctx, "rita", rita.AccessCode)
	require.True(t, res.Success)
	before := c.VisibleMembers(ctx, rbac.Query{})
	require.Len(t, before, 1, "Pedro is still in DCIESA")
	assert.Equal(t, "Rita", before[0].Name)

	sweep, err := c.RunTransitionSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{pedro.ID}, sweep.Transitioned)

	visible := c.VisibleMembers(ctx, rbac.Query{})
	require.Len(t, visible, 2)
	names := []string{visible[0].Name, visible[1].Name}
	assert.ElementsMatch(t, []string{"Pedro", "Rita"}, names)

	got, ok := c.Members.Get(pedro.ID)
	require.True(t, ok)
	last := got.History[len(got.History)-1]
	assert.Equal(t, memberdomain.HistoryTransition, last.Type)
	assert.Equal(t, "Automatic transition from DCIESA to JIESA (age: 18)", last.Description)

	again, err := c.RunTransitionSweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Transitioned)
}

func TestConsole_RegistrationAnnounced(t *testing.T) {
	c := newConsole(t, testConfig(), nil)
	m := register(t, c, "Joana", memberdomain.RoleMember, "SHIESA", "")

	feed := c.Feed.List()
	require.Len(t, feed, 1)
	assert.Equal(t, "Members: Joana registered. Access code: "+m.AccessCode, feed[0].Message)
	assert.Equal(t, "Admin", feed[0].Author)
}

func TestConsole_CanAccess(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	treasurer := register(t, c, "Tomas", memberdomain.RoleTreasurer, memberdomain.GeneralDepartment, "")

	assert.False(t, c.CanAccess(ctx, rbac.FeatureDashboard), "logged out")

	require.True(t, c.Login(ctx, "Tomas", treasurer.AccessCode).Success)
	assert.True(t, c.CanAccess(ctx, rbac.FeatureTreasury))
	assert.True(t, c.CanAccess(ctx, rbac.FeatureEvents))
	assert.False(t, c.CanAccess(ctx, rbac.FeatureSettings))

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.CanAccess(ctx, rbac.FeatureEvents))
}

func TestConsole_BootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.BootstrapAdminName = "IESA GERIZIM"
	cfg.BootstrapAdminCode = "Gerizim2026"
	store := keepOpen{kvstore.NewMemoryStore()}

	c := newConsole(t, cfg, store)
	require.Equal(t, 1, c.Members.Len())
	res := c.Login(ctx, "iesa gerizim", "Gerizim2026")
	require.True(t, res.Success)
	assert.True(t, res.Identity.IsSuperAdmin())
	assert.True(t, c.CanAccess(ctx, rbac.FeatureSettings))
	require.NoError(t, c.Close())

	reopened := newConsole(t, cfg, store)
	assert.Equal(t, 1, reopened.Members.Len(), "bootstrap is idempotent")
}

func TestConsole_DeleteMemberAudited(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	admin := register(t, c, "Ana", memberdomain.RoleAdmin, memberdomain.GeneralDepartment, "")
	victim := register(t, c, "Luis", memberdomain.RoleMember, "DEBOS", "")
	require.True(t, c.Login(ctx, "Ana", admin.AccessCode).Success)

	ok, err := c.DeleteMember(ctx, victim.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.DeleteMember(ctx, victim.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := c.Audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, auditdomain.ActionMemberDeleted, entries[0].Action)
	assert.Equal(t, admin.ID, entries[0].MemberID)
}

func TestConsole_EventsUseCurrentIdentity(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	leader := register(t, c, "Rita", memberdomain.RoleDeptLeader, "JIESA", "")
	require.True(t, c.Login(ctx, "Rita", leader.AccessCode).Success)

	ev, err := c.Events.Create(ctx, c.Current(ctx), eventdomain.Input{Type: "Retiro", Title: "Jovens", Date: "2025-07-01", Location: "Sicar"})
	require.NoError(t, err)
	assert.Equal(t, "JIESA", ev.Department)
	assert.Equal(t, "New activity announced: Retiro", c.Feed.List()[0].Message)
}

func TestConsole_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.StorageDriver = config.StorageSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "iesa.db")

	store, err := kvstore.NewSQLiteStore(cfg.SQLitePath)
	require.NoError(t, err)
	c := newConsole(t, cfg, store)
	m := register(t, c, "Rita", memberdomain.RoleDeptLeader, "JIESA", "")
	require.True(t, c.Login(ctx, "Rita", m.AccessCode).Success)

	// same process keeps the signing key; a second console over the same file restores the session
	id, err := c.Auth.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, m.ID, id.MemberID)
	require.NoError(t, c.Close())

	store2, err := kvstore.NewSQLiteStore(cfg.SQLitePath)
	require.NoError(t, err)
	c2 := newConsole(t, cfg, store2)
	assert.Equal(t, 1, c2.Members.Len())
	// ephemeral keys: a restarted console cannot verify the old token and discards it
	id, err = c2.Auth.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestConsole_CloseTwice(t *testing.T) {
	c := newConsole(t, testConfig(), nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestConsole_MemberWritesRequireIdentity(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	victim := register(t, c, "Luis", memberdomain.RoleMember, "JIESA", "")

	_, err := c.RegisterMember(ctx, memberdomain.Patch{Name: memberdomain.Ptr("Intruso")})
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
	ok, err := c.UpdateMember(ctx, victim.ID, memberdomain.Patch{Role: memberdomain.Ptr(memberdomain.RoleSuperAdmin)})
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
	assert.False(t, ok)
	ok, err = c.DeleteMember(ctx, victim.ID)
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
	assert.False(t, ok)
	ok, err = c.AppendHistory(ctx, victim.ID, memberdomain.HistoryEntry{Type: memberdomain.HistoryOther, Description: "x"})
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
	assert.False(t, ok)

	got, found := c.Members.Get(victim.ID)
	require.True(t, found)
	assert.Equal(t, memberdomain.RoleMember, got.Role)
	assert.Len(t, got.History, 1)
	assert.Equal(t, 1, c.Members.Len())
}

func TestConsole_MemberWritesFollowDepartmentScope(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	plain := register(t, c, "Marco", memberdomain.RoleMember, "DEBOS", "")
	leader := register(t, c, "Rita", memberdomain.RoleDeptLeader, "JIESA", "")
	inJIESA := register(t, c, "Luis", memberdomain.RoleMember, "JIESA", "")
	inDEBOS := register(t, c, "Paulo", memberdomain.RoleMember, "DEBOS", "")

	require.True(t, c.Login(ctx, "Marco", plain.AccessCode).Success)
	ok, err := c.DeleteMember(ctx, inJIESA.ID)
	assert.ErrorIs(t, err, rbac.ErrForbidden)
	assert.False(t, ok)
	_, err = c.RegisterMember(ctx, memberdomain.Patch{Name: memberdomain.Ptr("Novo")})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
	require.NoError(t, c.Logout(ctx))

	require.True(t, c.Login(ctx, "Rita", leader.AccessCode).Success)
	ok, err = c.UpdateMember(ctx, inJIESA.ID, memberdomain.Patch{Phone: memberdomain.Ptr("923111222")})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.AppendHistory(ctx, inJIESA.ID, memberdomain.HistoryEntry{Type: memberdomain.HistoryOther, Description: "Moved to Sicar"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.UpdateMember(ctx, inDEBOS.ID, memberdomain.Patch{Phone: memberdomain.Ptr("923000000")})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
	_, err = c.UpdateMember(ctx, inJIESA.ID, memberdomain.Patch{Department: memberdomain.Ptr("DEBOS")})
	assert.ErrorIs(t, err, rbac.ErrForbidden, "a leader cannot move a member out of their department")
	_, err = c.UpdateMember(ctx, inJIESA.ID, memberdomain.Patch{Role: memberdomain.Ptr(memberdomain.RoleSuperAdmin)})
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	m, err := c.RegisterMember(ctx, memberdomain.Patch{Name: memberdomain.Ptr("Nova"), Department: memberdomain.Ptr("DEBOS")})
	require.NoError(t, err)
	assert.Equal(t, "JIESA", m.Department, "leader registrations land in the leader's department")

	got, _ := c.Members.Get(inJIESA.ID)
	assert.Equal(t, memberdomain.RoleMember, got.Role)
	assert.Equal(t, "JIESA", got.Department)
	assert.Equal(t, "923111222", got.Phone)

	entries, err := c.Audit.Recent(ctx, 50)
	require.NoError(t, err)
	forbidden := 0
	for _, e := range entries {
		if e.Action == auditdomain.ActionForbidden && e.Resource == "member" {
			forbidden++
		}
	}
	assert.Equal(t, 5, forbidden, "every denied member write is audited")
}

func TestConsole_OnlySuperAdminGrantsSuperAdmin(t *testing.T) {
	ctx := context.Background()
	c := newConsole(t, testConfig(), nil)
	admin := register(t, c, "Ana", memberdomain.RoleAdmin, memberdomain.GeneralDepartment, "")
	root := register(t, c, "Pastor", memberdomain.RoleSuperAdmin, memberdomain.GeneralDepartment, "")
	target := register(t, c, "Luis", memberdomain.RoleMember, "JIESA", "")

	require.True(t, c.Login(ctx, "Ana", admin.AccessCode).Success)
	_, err := c.UpdateMember(ctx, target.ID, memberdomain.Patch{Role: memberdomain.Ptr(memberdomain.RoleSuperAdmin)})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
	_, err = c.DeleteMember(ctx, root.ID)
	assert.ErrorIs(t, err, rbac.ErrForbidden, "admins cannot remove a super admin")
	ok, err := c.UpdateMember(ctx, target.ID, memberdomain.Patch{Role: memberdomain.Ptr(memberdomain.RoleSecretary)})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.Logout(ctx))

	require.True(t, c.Login(ctx, "Pastor", root.AccessCode).Success)
	ok, err = c.UpdateMember(ctx, target.ID, memberdomain.Patch{Role: memberdomain.Ptr(memberdomain.RoleSuperAdmin)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsole_ContextMemberActsWithoutSession(t *testing.T) {
	c := newConsole(t, testConfig(), nil)
	secretary := register(t, c, "Sara", memberdomain.RoleSecretary, memberdomain.GeneralDepartment, "")

	ctx := identitydomain.WithMemberID(context.Background(), secretary.ID)
	m, err := c.RegisterMember(ctx, memberdomain.Patch{Name: memberdomain.Ptr("Joana"), Department: memberdomain.Ptr("SHIESA")})
	require.NoError(t, err)
	assert.Equal(t, "SHIESA", m.Department)
	assert.Nil(t, c.Current(context.Background()), "acting through the context does not log in")

	gone := identitydomain.WithMemberID(context.Background(), "missing")
	_, err = c.RegisterMember(gone, memberdomain.Patch{Name: memberdomain.Ptr("Outro")})
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
}

func TestConsole_BcryptRegistrationKeepsCodeOutOfFeed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.CredentialScheme = config.CredentialBcrypt
	cfg.BcryptCost = 4
	store := kvstore.NewMemoryStore()
	c := newConsole(t, cfg, store)
	m := register(t, c, "Joana", memberdomain.RoleMember, "SHIESA", "")

	payload, found, err := store.Load(ctx, kvstore.KeyNotifications)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, string(payload), m.AccessCode)
	assert.Equal(t, "Members: Joana registered.", c.Feed.List()[0].Message)

	require.True(t, c.Login(ctx, "Joana", m.AccessCode).Success, "the issued code still logs in")
}
