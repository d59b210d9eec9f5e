package service_test

import (
	"context"
	"testing"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/repository"
	"ubio-intake/internal/service"
	"ubio-intake/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPersistence(remote service.RemoteRecords) (*service.Persistence, *repository.LocalRecords) {
	local := repository.NewLocalRecords(store.NewMemoryKV(), "userInfoData", zap.NewNop())
	return service.NewPersistence(remote, local, service.Merge, nil, zap.NewNop()), local
}

func TestPersistence_LoadAllMergesRemoteThenLocal(t *testing.T) {
	remote := newFakeRemote(domain.Record{ID: "A", Name: "remote"})
	p, local := newPersistence(remote)
	ctx := context.Background()
	require.NoError(t, local.Save(ctx, []domain.Record{{ID: "A", Name: "local"}}))

	res := p.LoadAll(ctx)
	require.True(t, res.Success)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "remote", res.Records[0].Name)
	assert.Equal(t, "local", res.Records[1].Name)
}

func TestPersistence_LoadAllFallsBackToLocal(t *testing.T) {
	remote := newFakeRemote(domain.Record{ID: "A"})
	remote.setDown(true)
	p, local := newPersistence(remote)
	ctx := context.Background()
	require.NoError(t, local.Save(ctx, []domain.Record{{ID: "B"}}))

	res := p.LoadAll(ctx)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrRemoteUnavailable)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "B", res.Records[0].ID)
}

func TestPersistence_CreateRecomputesAndCaches(t *testing.T) {
	remote := newFakeRemote()
	p, local := newPersistence(remote)
	ctx := context.Background()

	res := p.Create(ctx, domain.Record{
		Name: "Kim", ResidentNumber: "900101-1234567", Height: "170", Weight: "65",
		BMI: "1.0", PVC: "999", Pulse: "70",
	})
	require.True(t, res.Success)
	assert.Equal(t, "remote-1", res.Record.ID)
	assert.Equal(t, "22.5", res.Record.BMI)
	assert.Equal(t, "0.00", res.Record.PVC)
	assert.Equal(t, "male", res.Record.Gender)
	assert.Equal(t, "70", res.Record.HeartRate)
	assert.NotEmpty(t, res.Record.CreatedAt)

	cached, err := local.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "remote-1", cached[0].ID)
}

func TestPersistence_CreateKeepsRecordLocallyWhenRemoteDown(t *testing.T) {
	remote := newFakeRemote()
	remote.setDown(true)
	p, local := newPersistence(remote)
	ctx := context.Background()

	res := p.Create(ctx, domain.Record{Name: "Kim"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrRemoteUnavailable)
	require.NotNil(t, res.Record)
	assert.NotEmpty(t, res.Record.ID)

	cached, err := local.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, res.Record.ID, cached[0].ID)
}

func TestPersistence_UpdateLocalOnlyRecord(t *testing.T) {
	remote := newFakeRemote()
	p, local := newPersistence(remote)
	ctx := context.Background()
	require.NoError(t, local.Save(ctx, []domain.Record{{ID: "L1", Name: "Kim", Height: "170", Weight: "65"}}))

	got, err := p.Update(ctx, "L1", domain.Record{ID: "ignored", Name: "Kim", Height: "180", Weight: "81"})
	require.NoError(t, err)
	assert.Equal(t, "L1", got.ID)
	assert.Equal(t, "25.0", got.BMI)
	assert.NotEmpty(t, got.UpdatedAt)

	cached, err := local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "180", cached[0].Height)
}

func TestPersistence_UpdateKeepsCreatedAt(t *testing.T) {
	remote := newFakeRemote()
	p, local := newPersistence(remote)
	ctx := context.Background()

	res := p.Create(ctx, domain.Record{Name: "Kim", ResidentNumber: "900101-1234567", Height: "170", Weight: "65"})
	require.True(t, res.Success)
	createdAt := res.Record.CreatedAt
	require.NotEmpty(t, createdAt)

	got, err := p.Update(ctx, res.Record.ID, domain.Record{Name: "Kim2", ResidentNumber: "900101-1234567", Height: "170", Weight: "70"})
	require.NoError(t, err)
	assert.Equal(t, createdAt, got.CreatedAt)

	cached, err := local.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Kim2", cached[0].Name)
	assert.Equal(t, createdAt, cached[0].CreatedAt)

	all := p.LoadAll(ctx)
	require.True(t, all.Success)
	require.Len(t, all.Records, 2)
	for _, r := range all.Records {
		assert.Equal(t, "Kim2", r.Name)
		assert.Equal(t, createdAt, r.CreatedAt)
	}
}

func TestPersistence_UpdateUnknown(t *testing.T) {
	p, _ := newPersistence(newFakeRemote())
	_, err := p.Update(context.Background(), "nope", domain.Record{})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestPersistence_Delete(t *testing.T) {
	remote := newFakeRemote(domain.Record{ID: "R1"})
	p, local := newPersistence(remote)
	ctx := context.Background()
	require.NoError(t, local.Save(ctx, []domain.Record{{ID: "L1"}}))

	require.NoError(t, p.Delete(ctx, "R1"))
	require.NoError(t, p.Delete(ctx, "L1"))
	assert.ErrorIs(t, p.Delete(ctx, "L1"), domain.ErrRecordNotFound)

	remote.setDown(true)
	require.NoError(t, local.Save(ctx, []domain.Record{{ID: "L2"}}))
	assert.ErrorIs(t, p.Delete(ctx, "L2"), domain.ErrRemoteUnavailable)
}
