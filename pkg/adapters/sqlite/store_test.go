package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "switchboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunConversationStoreContract(t, newStore(t))
}

func TestSQLiteStore_OutcomeAudit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	conv := domain.NewConversation("c1", "Triage Agent", nil)
	conv.Filters = []domain.FilterOutcome{{ID: "o1", Name: "Relevance Guardrail", Input: "hi", Passed: true, Timestamp: 1}}
	require.NoError(t, store.Save(ctx, "c1", conv))

	conv.Filters = []domain.FilterOutcome{{ID: "o2", Name: "Jailbreak Guardrail", Input: "drop table users;", Rationale: "sql", Passed: false, Timestamp: 2}}
	require.NoError(t, store.Save(ctx, "c1", conv))

	outcomes, err := store.Outcomes(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Passed)
	assert.False(t, outcomes[1].Passed)
	assert.Equal(t, "sql", outcomes[1].Rationale)
}

func TestSQLiteStore_SaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversations")).WillReturnError(boom)
	mock.ExpectRollback()

	store := sqlite.NewFromDB(db)
	err = store.Save(context.Background(), "c1", domain.NewConversation("c1", "Triage Agent", nil))

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_LoadNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM conversations")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	_, err = sqlite.NewFromDB(db).Load(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
