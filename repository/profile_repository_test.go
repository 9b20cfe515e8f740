package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/session"
)

func newTestProfileRepository(t *testing.T) (*ProfileRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProfileRepository(client, time.Hour), mr
}

func TestProfileRepositoryRoundTrip(t *testing.T) {
	repo, mr := newTestProfileRepository(t)
	ctx := context.Background()

	pan := "ABCDE1234F"
	profile := dto.NewUserProfile("app-1")
	profile.Name = "Ravi Kumar"
	profile.ApplicationStatus = dto.StatusInProgress
	profile.Documents[dto.DocTypePAN] = dto.Document{
		ID:               "doc-1",
		Type:             dto.DocTypePAN,
		ImageData:        []byte("not persisted"),
		IsVerified:       true,
		ExtractedDetails: &dto.ExtractedDetails{PANNumber: &pan},
	}
	profile.RecentActivities = []dto.RecentActivity{dto.NewRecentActivity("Loan Approved", "ok", dto.ActivitySuccess)}

	require.NoError(t, repo.Save(ctx, profile))
	assert.True(t, mr.Exists("loan:profile:app-1"))
	assert.Equal(t, time.Hour, mr.TTL("loan:profile:app-1"))

	loaded, err := repo.Load(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", loaded.Name)
	assert.Equal(t, dto.StatusInProgress, loaded.ApplicationStatus)
	require.Contains(t, loaded.Documents, dto.DocTypePAN)
	assert.True(t, loaded.Documents[dto.DocTypePAN].IsVerified)
	assert.Equal(t, "ABCDE1234F", *loaded.Documents[dto.DocTypePAN].ExtractedDetails.PANNumber)
	assert.Nil(t, loaded.Documents[dto.DocTypePAN].ImageData)
	require.Len(t, loaded.RecentActivities, 1)
	assert.Equal(t, "Loan Approved", loaded.RecentActivities[0].Title)
}

func TestProfileRepositoryNotFound(t *testing.T) {
	repo, _ := newTestProfileRepository(t)

	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrProfileNotFound)
}

func TestProfileRepositoryCorruptValue(t *testing.T) {
	repo, mr := newTestProfileRepository(t)
	require.NoError(t, mr.Set("loan:profile:bad", "{not json"))

	_, err := repo.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrProfileNotFound)
}

func TestProfileRepositoryDelete(t *testing.T) {
	repo, mr := newTestProfileRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, dto.NewUserProfile("app-2")))
	require.NoError(t, repo.Delete(ctx, "app-2"))
	assert.False(t, mr.Exists("loan:profile:app-2"))
}

func TestProfileRepositoryServerDown(t *testing.T) {
	repo, mr := newTestProfileRepository(t)
	mr.Close()

	err := repo.Save(context.Background(), dto.NewUserProfile("app-3"))
	assert.Error(t, err)
}
