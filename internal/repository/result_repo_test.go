package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/testutil"
)

func TestResultRepository_ReplaceForRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewResultRepository(db)
	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID)

	first := []*model.AnalysisResult{
		{RequestID: request.ID, Rank: 1, SuspectHandle: "a", RiskScore: 170, RiskGrade: "high_risk", IsUnlocked: true},
		{RequestID: request.ID, Rank: 2, SuspectHandle: "b", RiskScore: 60, RiskGrade: "normal", IsUnlocked: true},
	}
	require.NoError(t, repo.ReplaceForRequest(request.ID, first))

	// 重试 finalize 重新写入，不应产生重复行
	second := []*model.AnalysisResult{
		{RequestID: request.ID, Rank: 1, SuspectHandle: "c", RiskScore: 140, RiskGrade: "high_risk", IsUnlocked: true},
	}
	require.NoError(t, repo.ReplaceForRequest(request.ID, second))

	results, err := repo.ListByRequestID(request.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].SuspectHandle)
}

func TestResultRepository_ListByRequestID_RankOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewResultRepository(db)
	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID)

	// 乱序写入
	testutil.TestResult(t, db, request.ID, 3, 40)
	testutil.TestResult(t, db, request.ID, 1, 170)
	testutil.TestResult(t, db, request.ID, 2, 90)

	results, err := repo.ListByRequestID(request.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
	assert.Equal(t, 3, results[2].Rank)
}

func TestResultRepository_PrivateAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewResultRepository(db)
	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID)

	err := repo.CreatePrivateAccounts([]*model.PrivateAccount{
		{RequestID: request.ID, Handle: "locked1"},
		{RequestID: request.ID, Handle: "locked2"},
	})
	require.NoError(t, err)

	accounts, err := repo.ListPrivateAccounts(request.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, repo.DeletePrivateAccounts(request.ID))

	accounts, err = repo.ListPrivateAccounts(request.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestResultRepository_CreatePrivateAccounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewResultRepository(db)
	assert.NoError(t, repo.CreatePrivateAccounts(nil))
}
