package principal

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusplace/internal/identity/models"
	id "campusplace/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InMemoryPrincipalStoreSuite struct {
	suite.Suite
	store *InMemoryPrincipalStore
	now   time.Time
}

func (s *InMemoryPrincipalStoreSuite) SetupTest() {
	s.store = New()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func (s *InMemoryPrincipalStoreSuite) newStudent(username, email string) *models.Principal {
	p, err := models.NewPrincipal(
		id.NewPrincipalID(),
		username,
		email,
		models.RoleStudent,
		id.TenantID(uuid.New()),
		"computer-science",
		s.now,
	)
	require.NoError(s.T(), err)
	p.PasswordHash = "$2a$10$placeholderplaceholderplaceholder"
	require.NoError(s.T(), s.store.Save(context.Background(), p))
	return p
}

func (s *InMemoryPrincipalStoreSuite) TestSaveAndFind() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), p, found)
}

func (s *InMemoryPrincipalStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewPrincipalID())
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.store.FindByEmail(context.Background(), "missing@example.edu")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *InMemoryPrincipalStoreSuite) TestFindByIdentifierMatchesUsernameAndEmail() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	byUsername, err := s.store.FindByIdentifier(context.Background(), "jdoe")
	require.NoError(s.T(), err)
	require.Len(s.T(), byUsername, 1)
	assert.Equal(s.T(), p.ID, byUsername[0].ID)

	byEmail, err := s.store.FindByIdentifier(context.Background(), "jane.doe@example.edu")
	require.NoError(s.T(), err)
	require.Len(s.T(), byEmail, 1)
	assert.Equal(s.T(), p.ID, byEmail[0].ID)
}

func (s *InMemoryPrincipalStoreSuite) TestFindByIdentifierIsCaseInsensitive() {
	s.newStudent("JDoe", "Jane.Doe@Example.edu")

	found, err := s.store.FindByIdentifier(context.Background(), "jdoe")
	require.NoError(s.T(), err)
	assert.Len(s.T(), found, 1)

	found, err = s.store.FindByIdentifier(context.Background(), "jane.doe@example.edu")
	require.NoError(s.T(), err)
	assert.Len(s.T(), found, 1)
}

func (s *InMemoryPrincipalStoreSuite) TestFindByIdentifierReturnsAllCandidates() {
	first := s.newStudent("shared", "first@college-a.edu")
	second := s.newStudent("shared", "second@college-b.edu")
	second.CreatedAt = s.now.Add(time.Minute)
	require.NoError(s.T(), s.store.Save(context.Background(), second))

	found, err := s.store.FindByIdentifier(context.Background(), "shared")
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 2)
	assert.Equal(s.T(), first.ID, found[0].ID)
	assert.Equal(s.T(), second.ID, found[1].ID)
}

func (s *InMemoryPrincipalStoreSuite) TestRecordFailedAttemptLocksAtThreshold() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	for i := 1; i < models.MaxFailedAttempts; i++ {
		attempts, lockedUntil, err := s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), i, attempts)
		assert.Nil(s.T(), lockedUntil)
	}

	attempts, lockedUntil, err := s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.MaxFailedAttempts, attempts)
	require.NotNil(s.T(), lockedUntil)
	assert.Equal(s.T(), s.now.Add(models.LockDuration), *lockedUntil)
}

func (s *InMemoryPrincipalStoreSuite) TestRecordFailedAttemptKeepsExistingLockExpiry() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	var firstLock *time.Time
	for i := 0; i < models.MaxFailedAttempts; i++ {
		_, firstLock, _ = s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)
	}
	require.NotNil(s.T(), firstLock)

	_, lockedUntil, err := s.store.RecordFailedAttempt(context.Background(), p.ID, s.now.Add(time.Minute))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), *firstLock, *lockedUntil)
}

func (s *InMemoryPrincipalStoreSuite) TestConcurrentFailedAttemptsAllCounted() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	const attempts = 100
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, _, err := s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), attempts, found.FailedAttempts)
	assert.NotNil(s.T(), found.LockedUntil)
}

func (s *InMemoryPrincipalStoreSuite) TestClearLock() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	for i := 0; i < models.MaxFailedAttempts; i++ {
		_, _, _ = s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)
	}

	require.NoError(s.T(), s.store.ClearLock(context.Background(), p.ID, s.now))

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), found.FailedAttempts)
	assert.Nil(s.T(), found.LockedUntil)
}

func (s *InMemoryPrincipalStoreSuite) TestRecordLoginResetsLockoutAndInstallsHandle() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	_, _, _ = s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)

	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), found.FailedAttempts)
	assert.Nil(s.T(), found.LockedUntil)
	assert.Equal(s.T(), "handle-1", found.RefreshHandle)
	require.NotNil(s.T(), found.LastLoginAt)
	assert.Equal(s.T(), s.now, *found.LastLoginAt)
}

func (s *InMemoryPrincipalStoreSuite) TestRotateRefreshHandle() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))

	err := s.store.RotateRefreshHandle(context.Background(), p.ID, "handle-1", "handle-2", s.now)
	require.NoError(s.T(), err)

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "handle-2", found.RefreshHandle)
}

func (s *InMemoryPrincipalStoreSuite) TestRotateRefreshHandleRejectsStaleValue() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))
	require.NoError(s.T(), s.store.RotateRefreshHandle(context.Background(), p.ID, "handle-1", "handle-2", s.now))

	// Replaying the first handle after rotation must fail.
	err := s.store.RotateRefreshHandle(context.Background(), p.ID, "handle-1", "handle-3", s.now)
	assert.ErrorIs(s.T(), err, ErrStaleRefreshHandle)

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "handle-2", found.RefreshHandle)
}

func (s *InMemoryPrincipalStoreSuite) TestRotateRefreshHandleRejectsEmptyStored() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	err := s.store.RotateRefreshHandle(context.Background(), p.ID, "", "handle-1", s.now)
	assert.ErrorIs(s.T(), err, ErrStaleRefreshHandle)
}

func (s *InMemoryPrincipalStoreSuite) TestConcurrentRotationOnlyOneWins() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))

	const racers = 20
	var wg sync.WaitGroup
	wg.Add(racers)
	wins := make(chan int, racers)
	for i := 0; i < racers; i++ {
		go func(n int) {
			defer wg.Done()
			if err := s.store.RotateRefreshHandle(context.Background(), p.ID, "handle-1", "next", s.now); err == nil {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	assert.Equal(s.T(), 1, winners)
}

func (s *InMemoryPrincipalStoreSuite) TestClearRefreshHandleIsIdempotent() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))

	require.NoError(s.T(), s.store.ClearRefreshHandle(context.Background(), p.ID, s.now))
	require.NoError(s.T(), s.store.ClearRefreshHandle(context.Background(), p.ID, s.now))

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), found.RefreshHandle)
}

func (s *InMemoryPrincipalStoreSuite) TestUpdatePasswordRevokesSessionAndLock() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")
	require.NoError(s.T(), s.store.RecordLogin(context.Background(), p.ID, "handle-1", s.now))
	_, _, _ = s.store.RecordFailedAttempt(context.Background(), p.ID, s.now)

	require.NoError(s.T(), s.store.UpdatePassword(context.Background(), p.ID, "new-hash", s.now))

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "new-hash", found.PasswordHash)
	assert.Empty(s.T(), found.RefreshHandle)
	assert.Zero(s.T(), found.FailedAttempts)
	assert.Nil(s.T(), found.LockedUntil)
}

func (s *InMemoryPrincipalStoreSuite) TestListByTenantFiltersRoleAndStatus() {
	tenantID := id.TenantID(uuid.New())
	admin, err := models.NewPrincipal(id.NewPrincipalID(), "admin1", "admin1@college.edu", models.RoleAdmin, tenantID, "", s.now)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.Save(context.Background(), admin))

	inactive, err := models.NewPrincipal(id.NewPrincipalID(), "admin2", "admin2@college.edu", models.RoleAdmin, tenantID, "", s.now)
	require.NoError(s.T(), err)
	inactive.Deactivate(s.now)
	require.NoError(s.T(), s.store.Save(context.Background(), inactive))

	s.newStudent("student1", "student1@college.edu")

	admins, err := s.store.ListByTenant(context.Background(), tenantID, models.RoleAdmin)
	require.NoError(s.T(), err)
	require.Len(s.T(), admins, 1)
	assert.Equal(s.T(), admin.ID, admins[0].ID)
}

func (s *InMemoryPrincipalStoreSuite) TestListSuperadmins() {
	super, err := models.NewPrincipal(id.NewPrincipalID(), "root", "root@platform.example", models.RoleSuperadmin, id.TenantID{}, "", s.now)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.Save(context.Background(), super))
	s.newStudent("student1", "student1@college.edu")

	supers, err := s.store.ListSuperadmins(context.Background())
	require.NoError(s.T(), err)
	require.Len(s.T(), supers, 1)
	assert.Equal(s.T(), super.ID, supers[0].ID)
}

func (s *InMemoryPrincipalStoreSuite) TestFindReturnsCopies() {
	p := s.newStudent("jdoe", "jane.doe@example.edu")

	found, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	found.FailedAttempts = 42

	again, err := s.store.FindByID(context.Background(), p.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), again.FailedAttempts)
}

func TestInMemoryPrincipalStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryPrincipalStoreSuite))
}
