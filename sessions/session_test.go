package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/jrsteele09/go-intercom-bridge/store"
	storerepofake "github.com/jrsteele09/go-intercom-bridge/store/repofake"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := sessions.New(sessions.Data{})
	require.Equal(t, sessions.AppTypeSingle, s.AppType())
	require.Equal(t, sessions.DefaultSubdomain, s.Subdomain())
	require.Equal(t, sessions.StateUnauthenticated, s.State())
}

func TestSwitchAppType(t *testing.T) {
	s := sessions.New(sessions.Data{})
	require.Equal(t, sessions.AppTypeCommunity, s.SwitchAppType())
	require.Equal(t, sessions.AppTypeSingle, s.SwitchAppType())
	require.Equal(t, "app/single/", s.AppType().PathSegment())
}

func TestSetTokenPair_NeverClears(t *testing.T) {
	s := sessions.New(sessions.Data{Token: "t1", RefreshToken: "r1", AuthToken: "a1"})

	s.SetTokenPair(sessions.TokenPair{Token: "t2"})
	d := s.Snapshot()
	require.Equal(t, "t2", d.Token)
	require.Equal(t, "r1", d.RefreshToken)
	require.Equal(t, "a1", d.AuthToken)

	s.SetTokenPair(sessions.TokenPair{})
	require.Equal(t, "t2", s.Token())
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := sessions.New(sessions.Data{})
	now := time.Unix(1700000000, 0)
	s.SetLastTokenRefresh(now)

	d := s.Snapshot()
	*d.LastTokenRefresh = time.Unix(0, 0)
	require.Equal(t, now, s.Snapshot().LastRefresh())
}

func TestPersistAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := storerepofake.NewFakeStore()

	s := sessions.New(sessions.Data{
		Host:            "gate.example.com",
		Subdomain:       "ucloud",
		AppType:         sessions.AppTypeCommunity,
		Token:           "tok",
		RefreshToken:    "ref",
		AuthToken:       "auth",
		WaitForImageURL: true,
	})
	s.SetLastTokenRefresh(time.Unix(1700000000, 0))
	require.NoError(t, s.PersistTokens(ctx, repo))
	require.NoError(t, s.PersistRouting(ctx, repo))
	require.NoError(t, s.PersistPolicy(ctx, repo))

	loaded := sessions.New(sessions.Data{Token: "stale"})
	require.NoError(t, loaded.Load(ctx, repo))
	d := loaded.Snapshot()
	require.Equal(t, "tok", d.Token)
	require.Equal(t, "ref", d.RefreshToken)
	require.Equal(t, "auth", d.AuthToken)
	require.Equal(t, "gate.example.com", d.Host)
	require.Equal(t, "ucloud", d.Subdomain)
	require.Equal(t, sessions.AppTypeCommunity, d.AppType)
	require.True(t, d.WaitForImageURL)
	require.Equal(t, int64(1700000000), d.LastRefresh().Unix())
}

func TestLoad_EmptyStoreKeepsSeed(t *testing.T) {
	s := sessions.New(sessions.Data{Token: "seed", RefreshToken: "seed-r"})
	require.NoError(t, s.Load(context.Background(), storerepofake.NewFakeStore()))
	require.Equal(t, "seed", s.Token())
	require.Equal(t, "seed-r", s.RefreshToken())
	require.Nil(t, s.Snapshot().LastTokenRefresh)
}

func TestPersistTokens_SkipsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := storerepofake.NewFakeStore()
	require.NoError(t, repo.Set(ctx, store.KeyRefreshToken, "keep"))

	s := sessions.New(sessions.Data{Token: "tok"})
	require.NoError(t, s.PersistTokens(ctx, repo))

	var refresh string
	ok, err := repo.Get(ctx, store.KeyRefreshToken, &refresh)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "keep", refresh)
}

func TestForgetTokens(t *testing.T) {
	ctx := context.Background()
	repo := storerepofake.NewFakeStore()
	s := sessions.New(sessions.Data{Token: "tok", RefreshToken: "ref", AuthToken: "auth", Host: "rest.example.com"})
	s.SetLastTokenRefresh(time.Unix(1700000000, 0))
	require.NoError(t, s.PersistTokens(ctx, repo))
	require.NoError(t, s.PersistRouting(ctx, repo))

	require.NoError(t, s.ForgetTokens(ctx, repo))
	require.Empty(t, s.Token())
	require.Empty(t, s.RefreshToken())
	require.Nil(t, s.Snapshot().LastTokenRefresh)
	require.Equal(t, "rest.example.com", s.Host())

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{store.KeyAppType, store.KeyHost, store.KeySubdomain}, keys)

	// A second sign-out finds nothing to delete.
	require.NoError(t, s.ForgetTokens(ctx, repo))
}

func TestTokenSource(t *testing.T) {
	s := sessions.New(sessions.Data{})
	ts := s.TokenSource(7 * 24 * time.Hour)

	_, err := ts.Token()
	require.Error(t, err)

	refreshed := time.Now().Add(-24 * time.Hour)
	s.SetTokenPair(sessions.TokenPair{Token: "tok", RefreshToken: "ref"})
	s.SetLastTokenRefresh(refreshed)

	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, "tok", tok.AccessToken)
	require.Equal(t, "ref", tok.RefreshToken)
	require.True(t, tok.Valid())
	require.WithinDuration(t, refreshed.Add(7*24*time.Hour), tok.Expiry, time.Second)
}
