package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/insta_check_server/internal/testutil"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	created := testutil.TestUser(t, db, testutil.WithUsername("alice_w"))

	found, err := repo.GetByUsername("alice_w")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByUsername("missing")
	assert.Error(t, err)
}

func TestUserRepository_GetByGoogleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	googleID := "g-12345"
	user.GoogleID = &googleID
	user.Provider = "google"
	require.NoError(t, repo.Update(user))

	found, err := repo.GetByGoogleID(googleID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "google", found.Provider)
}

func TestUserRepository_IncrementAnalysisCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	require.NoError(t, repo.IncrementAnalysisCount(user.ID))
	require.NoError(t, repo.IncrementAnalysisCount(user.ID))

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.AnalysisCount)
}

func TestUserRepository_MarkPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	paidAt := time.Now()
	require.NoError(t, repo.MarkPaid(user.ID, "standard", paidAt))

	found, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, found.IsPaidUser)
	assert.Equal(t, "standard", found.PaidPlan)
	require.NotNil(t, found.PaidAt)
}

func TestUserRepository_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	testutil.TestUser(t, db, testutil.WithUsername("bob"), testutil.WithEmail("bob@example.com"))

	exists, err := repo.ExistsByUsername("bob")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail("bob@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
