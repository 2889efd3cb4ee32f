package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	identityservice "campusplace/internal/identity/service"
	principalStore "campusplace/internal/identity/store/principal"
	jobstore "campusplace/internal/job/store"
	jwttoken "campusplace/internal/jwt_token"
	tenantmodels "campusplace/internal/tenant/models"
	tenantstore "campusplace/internal/tenant/store"
	id "campusplace/pkg/domain"
)

const testPassword = "correct horse battery"

type RouterSuite struct {
	suite.Suite
	ctx        context.Context
	principals *principalStore.InMemoryPrincipalStore
	tenants    *tenantstore.InMemoryTenantStore
	trail      *audit.InMemoryStore
	recorder   *audit.Recorder
	jobs       *jobstore.InMemoryJobStore
	router     http.Handler

	tenant      *tenantmodels.Tenant
	otherTenant *tenantmodels.Tenant
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctx = context.Background()
	s.principals = principalStore.New()
	s.tenants = tenantstore.New()
	s.trail = audit.NewInMemoryStore()
	s.recorder = audit.NewRecorder(s.trail)
	s.jobs = jobstore.New()

	tokens := jwttoken.NewJWTService("test-signing-key-32-bytes-long!!", "campusplace", "campusplace", 15*time.Minute, 7*24*time.Hour)
	identity := identityservice.NewService(s.principals, s.tenants, tokens,
		identityservice.WithAuditRecorder(s.recorder),
	)

	handler := NewHandler(identity, s.jobs, s.trail,
		WithTenantDirectory(s.tenants),
	)
	s.router = NewRouter(handler, RouterDeps{
		Tokens:     tokens,
		Principals: s.principals,
		Recorder:   s.recorder,
	})

	now := time.Now()
	tenant, err := tenantmodels.NewTenant(id.NewTenantID(), "Test College", "TC", now)
	s.Require().NoError(err)
	s.Require().NoError(s.tenants.Save(s.ctx, tenant))
	s.tenant = tenant

	other, err := tenantmodels.NewTenant(id.NewTenantID(), "Other College", "OC", now)
	s.Require().NoError(err)
	s.Require().NoError(s.tenants.Save(s.ctx, other))
	s.otherTenant = other
}

func (s *RouterSuite) TearDownTest() {
	s.recorder.Close()
}

func (s *RouterSuite) createPrincipal(username string, role identitymodels.Role, tenantID id.TenantID, department string) *identitymodels.Principal {
	p, err := identitymodels.NewPrincipal(id.NewPrincipalID(), username, username+"@tc.edu", role, tenantID, department, time.Now())
	s.Require().NoError(err)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	s.Require().NoError(err)
	p.PasswordHash = string(hash)
	s.Require().NoError(s.principals.Save(s.ctx, p))
	return p
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) login(identifier string) (accessToken, refreshCookie string) {
	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Require().NotEmpty(result.AccessToken)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			refreshCookie = cookie.Value
		}
	}
	return result.AccessToken, refreshCookie
}

func (s *RouterSuite) TestLoginResponseSeparatesTokenChannels() {
	s.createPrincipal("asha", identitymodels.RoleStudent, s.tenant.ID, "cse")

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "asha",
		"password":   testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "refresh_token")

	var refreshCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			refreshCookie = cookie
		}
	}
	s.Require().NotNil(refreshCookie)
	s.NotEmpty(refreshCookie.Value)
	s.True(refreshCookie.HttpOnly)
	s.Equal(http.SameSiteStrictMode, refreshCookie.SameSite)
}

func (s *RouterSuite) TestRefreshViaCookie() {
	s.createPrincipal("asha", identitymodels.RoleStudent, s.tenant.ID, "cse")
	_, refreshCookie := s.login("asha")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshCookie})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), "access_token")
}

func (s *RouterSuite) TestMeRequiresAuth() {
	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestWrongPasswordIsUnauthorized() {
	s.createPrincipal("asha", identitymodels.RoleStudent, s.tenant.ID, "cse")

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "asha",
		"password":   "wrong",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "invalid_credentials")
}

func (s *RouterSuite) TestJobLifecycleWithScopeAndTrail() {
	s.createPrincipal("mod", identitymodels.RoleModerator, s.tenant.ID, "cse")
	s.createPrincipal("stud", identitymodels.RoleStudent, s.tenant.ID, "cse")
	s.createPrincipal("foreign-admin", identitymodels.RoleAdmin, s.otherTenant.ID, "")

	modToken, _ := s.login("mod")
	studToken, _ := s.login("stud")
	foreignToken, _ := s.login("foreign-admin")

	// Moderator creates a posting in their department.
	rec := s.do(http.MethodPost, "/api/jobs", modToken, map[string]string{
		"title":   "Backend Intern",
		"company": "Initech",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID         string `json:"id"`
		Department string `json:"department"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &job))
	s.Equal("cse", job.Department)

	// Same-tenant student can read it.
	rec = s.do(http.MethodGet, "/api/jobs/"+job.ID, studToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	// Cross-tenant admin sees nothing at all.
	rec = s.do(http.MethodGet, "/api/jobs/"+job.ID, foreignToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	// Student may not delete, same tenant or not.
	rec = s.do(http.MethodDelete, "/api/jobs/"+job.ID, studToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// The posting survives the denied delete.
	rec = s.do(http.MethodGet, "/api/jobs/"+job.ID, modToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	// The recorder persists asynchronously; wait for both entries to land.
	var entries []*audit.Entry
	s.Require().Eventually(func() bool {
		var err error
		entries, err = s.trail.ListRecent(s.ctx, s.tenant.ID, 100)
		if err != nil {
			return false
		}
		var create, deniedDelete bool
		for _, entry := range entries {
			switch entry.Action {
			case audit.ActionJobCreate:
				create = true
			case audit.ActionJobDelete:
				deniedDelete = true
			}
		}
		return create && deniedDelete
	}, time.Second, 5*time.Millisecond)

	var sawCreate, sawDeniedDelete bool
	for _, entry := range entries {
		switch entry.Action {
		case audit.ActionJobCreate:
			sawCreate = true
			s.Equal(audit.StatusSuccess, entry.Status)
			s.Equal(audit.SeverityLow, entry.Severity)
			s.False(entry.Suspicious)
		case audit.ActionJobDelete:
			sawDeniedDelete = true
			s.Equal(audit.StatusWarning, entry.Status)
			s.Equal(audit.SeverityHigh, entry.Severity)
			s.True(entry.Suspicious)
			s.Equal("student", entry.ActorRole)
		}
	}
	s.True(sawCreate, "job_create entry missing")
	s.True(sawDeniedDelete, "denied job_delete entry missing")
}

func (s *RouterSuite) TestModeratorCrossDepartmentForbidden() {
	s.createPrincipal("mod-cse", identitymodels.RoleModerator, s.tenant.ID, "cse")
	s.createPrincipal("mod-ece", identitymodels.RoleModerator, s.tenant.ID, "ece")

	cseToken, _ := s.login("mod-cse")
	eceToken, _ := s.login("mod-ece")

	rec := s.do(http.MethodPost, "/api/jobs", cseToken, map[string]string{
		"title":   "Backend Intern",
		"company": "Initech",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var job struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &job))

	rec = s.do(http.MethodGet, "/api/jobs/"+job.ID, eceToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestJobsRequireAuth() {
	rec := s.do(http.MethodGet, "/api/jobs", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestAuditEndpointsRestrictedToAdmins() {
	s.createPrincipal("admin", identitymodels.RoleAdmin, s.tenant.ID, "")
	s.createPrincipal("stud", identitymodels.RoleStudent, s.tenant.ID, "cse")

	adminToken, _ := s.login("admin")
	studToken, _ := s.login("stud")

	rec := s.do(http.MethodGet, "/api/audit", studToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/audit", adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestDeactivatedPrincipalLosesAccessImmediately() {
	p := s.createPrincipal("stud", identitymodels.RoleStudent, s.tenant.ID, "cse")
	token, _ := s.login("stud")

	p.Deactivate(time.Now())
	s.Require().NoError(s.principals.Save(s.ctx, p))

	rec := s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestTenantPickerListsActiveTenantsOnly() {
	closed, err := tenantmodels.NewTenant(id.NewTenantID(), "Closed College", "CC", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(closed.Deactivate(time.Now()))
	s.Require().NoError(s.tenants.Save(s.ctx, closed))

	rec := s.do(http.MethodGet, "/api/auth/tenants", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var out []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.Require().Len(out, 2)
	names := []string{out[0].Name, out[1].Name}
	s.Contains(names, "Test College")
	s.Contains(names, "Other College")
	s.NotContains(names, "Closed College")
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}
