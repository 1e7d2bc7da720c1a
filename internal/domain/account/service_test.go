package account

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/pagination"
)

type mockRepository struct {
	accounts map[uuid.UUID]*Account
	deleted  []uuid.UUID
}

func newMockRepository() *mockRepository {
	return &mockRepository{accounts: make(map[uuid.UUID]*Account)}
}

func (m *mockRepository) Create(_ context.Context, acc *Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	m.accounts[acc.ID] = acc
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return acc, nil
}

func (m *mockRepository) List(_ context.Context, userID, _ string, _ pagination.Cursor, limit int) ([]*Account, error) {
	var out []*Account
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) ListAll(_ context.Context, userID string) ([]*Account, error) {
	var out []*Account
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(_ context.Context, acc *Account) error {
	m.accounts[acc.ID] = acc
	return nil
}

func (m *mockRepository) DeleteBatch(_ context.Context, ids []uuid.UUID) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := m.accounts[id]; ok {
			delete(m.accounts, id)
			m.deleted = append(m.deleted, id)
			count++
		}
	}
	return count, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()
	identity := auth.Identity{Subject: gofakeit.New(1).UUID()}

	t.Run("stamps the caller as owner", func(t *testing.T) {
		acc, err := svc.Create(context.Background(), identity, CreateInput{Name: "Checking"})
		require.NoError(t, err)
		assert.Equal(t, identity.Subject, acc.UserID)
		assert.Equal(t, "Checking", acc.Name)
	})

	t.Run("empty name gets the default", func(t *testing.T) {
		acc, err := svc.Create(context.Background(), identity, CreateInput{})
		require.NoError(t, err)
		assert.Equal(t, DefaultName, acc.Name)
	})
}

func TestService_Get_OwnerIsolation(t *testing.T) {
	svc, _ := newTestService()
	owner := auth.Identity{Subject: "owner"}
	stranger := auth.Identity{Subject: "stranger"}

	acc, err := svc.Create(context.Background(), owner, CreateInput{Name: "Checking"})
	require.NoError(t, err)

	t.Run("owner sees it", func(t *testing.T) {
		got, err := svc.Get(context.Background(), owner, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, got.ID)
	})

	t.Run("stranger gets not found, not forbidden", func(t *testing.T) {
		_, err := svc.Get(context.Background(), stranger, acc.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing id is the same error", func(t *testing.T) {
		_, err := svc.Get(context.Background(), owner, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Update_PatchSemantics(t *testing.T) {
	svc, _ := newTestService()
	identity := auth.Identity{Subject: "owner"}
	external := "plaid-123"

	acc, err := svc.Create(context.Background(), identity, CreateInput{Name: "Checking", ExternalID: &external})
	require.NoError(t, err)

	newName := "Everyday Checking"
	updated, err := svc.Update(context.Background(), identity, acc.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Everyday Checking", updated.Name)
	require.NotNil(t, updated.ExternalID)
	assert.Equal(t, "plaid-123", *updated.ExternalID)
}

func TestService_Remove(t *testing.T) {
	faker := gofakeit.New(7)

	t.Run("deletes the whole batch", func(t *testing.T) {
		svc, repo := newTestService()
		identity := auth.Identity{Subject: "owner"}

		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			acc, err := svc.Create(context.Background(), identity, CreateInput{Name: faker.Company()})
			require.NoError(t, err)
			ids = append(ids, acc.ID)
		}

		deleted, err := svc.Remove(context.Background(), identity, ids)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
		assert.Len(t, repo.deleted, 3)
	})

	t.Run("one foreign id rejects everything", func(t *testing.T) {
		svc, repo := newTestService()
		owner := auth.Identity{Subject: "owner"}
		other := auth.Identity{Subject: "other"}

		mine, err := svc.Create(context.Background(), owner, CreateInput{Name: "Mine"})
		require.NoError(t, err)
		theirs, err := svc.Create(context.Background(), other, CreateInput{Name: "Theirs"})
		require.NoError(t, err)

		_, err = svc.Remove(context.Background(), owner, []uuid.UUID{mine.ID, theirs.ID})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, repo.deleted)
	})

	t.Run("empty batch is an error", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Remove(context.Background(), auth.Identity{Subject: "owner"}, nil)
		assert.Error(t, err)
	})
}

func TestService_List_Paging(t *testing.T) {
	svc, _ := newTestService()
	identity := auth.Identity{Subject: "owner"}

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), identity, CreateInput{Name: gofakeit.New(int64(i)).Company()})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), identity, "", "", 3)
	require.NoError(t, err)
	assert.Len(t, page.Accounts, 3)
	assert.NotEmpty(t, page.NextCursor)

	small, err := svc.List(context.Background(), identity, "", "", 10)
	require.NoError(t, err)
	assert.Len(t, small.Accounts, 5)
	assert.Empty(t, small.NextCursor)
}

func TestService_List_BadCursor(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.List(context.Background(), auth.Identity{Subject: "owner"}, "", "not-a-cursor", 10)
	assert.Error(t, err)
}
