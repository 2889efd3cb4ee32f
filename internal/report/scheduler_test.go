package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	principalStore "campusplace/internal/identity/store/principal"
	tenantmodels "campusplace/internal/tenant/models"
	tenantstore "campusplace/internal/tenant/store"
	id "campusplace/pkg/domain"
)

type sinkStub struct {
	mu      sync.Mutex
	reports []*TenantReport
	fail    map[string]bool // tenant ID -> deliver error
}

func (s *sinkStub) Deliver(_ context.Context, report *TenantReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[report.Tenant.ID.String()] {
		return errors.New("delivery failed")
	}
	s.reports = append(s.reports, report)
	return nil
}

func (s *sinkStub) delivered() []*TenantReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*TenantReport(nil), s.reports...)
}

type SchedulerSuite struct {
	suite.Suite
	ctx        context.Context
	tenants    *tenantstore.InMemoryTenantStore
	principals *principalStore.InMemoryPrincipalStore
	trail      *audit.InMemoryStore
	sink       *sinkStub
	clock      time.Time
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenants = tenantstore.New()
	s.principals = principalStore.New()
	s.trail = audit.NewInMemoryStore()
	s.sink = &sinkStub{fail: map[string]bool{}}
	s.clock = time.Now().Truncate(time.Second)
}

func (s *SchedulerSuite) newScheduler(opts ...Option) *Scheduler {
	opts = append([]Option{WithClock(func() time.Time { return s.clock })}, opts...)
	return NewScheduler(s.tenants, s.principals, s.trail, s.sink, opts...)
}

func (s *SchedulerSuite) createTenant(name string) *tenantmodels.Tenant {
	tenant, err := tenantmodels.NewTenant(id.NewTenantID(), name, name, s.clock)
	s.Require().NoError(err)
	s.Require().NoError(s.tenants.Save(s.ctx, tenant))
	return tenant
}

func (s *SchedulerSuite) createAdmin(username string, tenantID id.TenantID) *identitymodels.Principal {
	p, err := identitymodels.NewPrincipal(id.NewPrincipalID(), username, username+"@tc.edu", identitymodels.RoleAdmin, tenantID, "", s.clock)
	s.Require().NoError(err)
	s.Require().NoError(s.principals.Save(s.ctx, p))
	return p
}

func (s *SchedulerSuite) TestRunOnceDeliversPerReportableTenant() {
	a := s.createTenant("Alpha")
	b := s.createTenant("Beta")
	s.createAdmin("alpha-admin", a.ID)
	s.createAdmin("beta-admin", b.ID)

	suspended := s.createTenant("Gamma")
	suspended.Subscription = tenantmodels.SubscriptionSuspended
	s.Require().NoError(s.tenants.Save(s.ctx, suspended))
	s.createAdmin("gamma-admin", suspended.ID)

	err := s.newScheduler().RunOnce(s.ctx)
	s.Require().NoError(err)

	delivered := s.sink.delivered()
	s.Require().Len(delivered, 2)
	for _, report := range delivered {
		s.NotEqual(suspended.ID, report.Tenant.ID)
		s.Len(report.Recipients, 1)
		s.Equal(s.clock, report.GeneratedAt)
	}
}

func (s *SchedulerSuite) TestRecipientsAreActiveAdmins() {
	tenant := s.createTenant("Alpha")
	s.createAdmin("kept", tenant.ID)

	gone := s.createAdmin("gone", tenant.ID)
	gone.Deactivate(s.clock)
	s.Require().NoError(s.principals.Save(s.ctx, gone))

	student, err := identitymodels.NewPrincipal(id.NewPrincipalID(), "stud", "stud@tc.edu", identitymodels.RoleStudent, tenant.ID, "cse", s.clock)
	s.Require().NoError(err)
	s.Require().NoError(s.principals.Save(s.ctx, student))

	s.Require().NoError(s.newScheduler().RunOnce(s.ctx))

	delivered := s.sink.delivered()
	s.Require().Len(delivered, 1)
	s.Require().Len(delivered[0].Recipients, 1)
	s.Equal("kept", delivered[0].Recipients[0].Username)
}

func (s *SchedulerSuite) TestIncludeSuperadminsAddsThemToEveryTenant() {
	tenant := s.createTenant("Alpha")
	s.createAdmin("alpha-admin", tenant.ID)

	root, err := identitymodels.NewPrincipal(id.NewPrincipalID(), "root", "root@campusplace.io", identitymodels.RoleSuperadmin, id.TenantID{}, "", s.clock)
	s.Require().NoError(err)
	s.Require().NoError(s.principals.Save(s.ctx, root))

	s.Require().NoError(s.newScheduler(WithIncludeSuperadmins(true)).RunOnce(s.ctx))

	delivered := s.sink.delivered()
	s.Require().Len(delivered, 1)
	s.Len(delivered[0].Recipients, 2)
}

func (s *SchedulerSuite) TestTenantWithNoRecipientsIsSkippedNotFailed() {
	s.createTenant("Alpha")

	s.Require().NoError(s.newScheduler().RunOnce(s.ctx))
	s.Empty(s.sink.delivered())
}

func (s *SchedulerSuite) TestReportCarriesWindowActivity() {
	tenant := s.createTenant("Alpha")
	admin := s.createAdmin("alpha-admin", tenant.ID)

	inWindow := &audit.Entry{
		ID: id.NewEntryID(), TenantID: tenant.ID, ActorID: admin.ID,
		Action: audit.ActionJobCreate, Status: audit.StatusSuccess,
		Severity: audit.SeverityLow, CreatedAt: s.clock.Add(-time.Hour),
	}
	outOfWindow := &audit.Entry{
		ID: id.NewEntryID(), TenantID: tenant.ID, ActorID: admin.ID,
		Action: audit.ActionJobDelete, Status: audit.StatusSuccess,
		Severity: audit.SeverityMedium, CreatedAt: s.clock.Add(-30 * 24 * time.Hour),
	}
	s.Require().NoError(s.trail.Append(s.ctx, inWindow))
	s.Require().NoError(s.trail.Append(s.ctx, outOfWindow))

	s.Require().NoError(s.newScheduler(WithInterval(7 * 24 * time.Hour)).RunOnce(s.ctx))

	delivered := s.sink.delivered()
	s.Require().Len(delivered, 1)
	s.Require().Len(delivered[0].ActionCounts, 1)
	s.Equal(audit.ActionJobCreate, delivered[0].ActionCounts[0].Action)
	s.Equal(s.clock.Add(-7*24*time.Hour), delivered[0].WindowStart)
}

func (s *SchedulerSuite) TestOneTenantFailureDoesNotStopOthers() {
	a := s.createTenant("Alpha")
	b := s.createTenant("Beta")
	s.createAdmin("alpha-admin", a.ID)
	s.createAdmin("beta-admin", b.ID)
	s.sink.fail[a.ID.String()] = true

	err := s.newScheduler(WithFanOutLimit(1)).RunOnce(s.ctx)
	s.Error(err)
	s.Require().Len(s.sink.delivered(), 1)
	s.Equal(b.ID, s.sink.delivered()[0].Tenant.ID)
}

func (s *SchedulerSuite) TestStartStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	scheduler := s.newScheduler(WithInterval(time.Hour))

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("scheduler did not stop on cancel")
	}
}

func (s *SchedulerSuite) TestStartDeliversOnTick() {
	tenant := s.createTenant("Alpha")
	s.createAdmin("alpha-admin", tenant.ID)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	scheduler := s.newScheduler(WithInterval(10 * time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()

	s.Eventually(func() bool {
		return len(s.sink.delivered()) >= 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
