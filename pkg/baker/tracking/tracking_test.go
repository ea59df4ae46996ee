package tracking

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

func testManager() *Manager {
	clock := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	return &Manager{now: func() time.Time { return clock }}
}

// projectWith writes a manifest into a temp folder and returns the path.
func projectWith(t *testing.T, rec *manifest.Record) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, manifest.Write(dir, rec))
	return dir
}

func card(id string) manifest.Card {
	return manifest.Card{
		URL:    "https://trello.com/c/" + id + "/some-card",
		CardID: id,
		Title:  "Card " + id,
	}
}

func TestParseCardID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain card url", url: "https://trello.com/c/a1B2c3D4", want: "a1B2c3D4"},
		{name: "with title slug", url: "https://trello.com/c/a1B2c3D4/my-card-title", want: "a1B2c3D4"},
		{name: "long id", url: "https://trello.com/c/abcdefgh12345678ijkl9012", want: "abcdefgh12345678ijkl9012"},
		{name: "too short", url: "https://trello.com/c/abc", wantErr: true},
		{name: "no card segment", url: "https://trello.com/b/boardid", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCardID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCardURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddCard(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	m := testManager()

	rec, err := m.AddCard(dir, card("a1B2c3D4"))
	require.NoError(t, err)
	require.Len(t, rec.Cards, 1)
	assert.Equal(t, "a1B2c3D4", rec.Cards[0].CardID)

	// The legacy single-URL field mirrors the first card.
	require.NotNil(t, rec.ExternalReferenceURL)
	assert.Equal(t, rec.Cards[0].URL, *rec.ExternalReferenceURL)
	require.NotNil(t, rec.LastModified)
	assert.Equal(t, "2024-07-01T12:00:00Z", *rec.LastModified)

	// Persisted, not just in memory.
	stored, err := manifest.Read(dir)
	require.NoError(t, err)
	assert.Len(t, stored.Cards, 1)
}

func TestAddCardDerivesID(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	rec, err := testManager().AddCard(dir, manifest.Card{
		URL:   "https://trello.com/c/deadbeef/title",
		Title: "Untitled",
	})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", rec.Cards[0].CardID)
}

func TestAddCardRejectsDuplicate(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	m := testManager()

	_, err := m.AddCard(dir, card("a1B2c3D4"))
	require.NoError(t, err)
	_, err = m.AddCard(dir, card("a1B2c3D4"))
	assert.ErrorIs(t, err, ErrDuplicateCard)
}

func TestAddCardLimit(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	m := testManager()

	for i := 0; i < MaxCards; i++ {
		_, err := m.AddCard(dir, card("cardid"+strconv.Itoa(10+i)))
		require.NoError(t, err)
	}
	_, err := m.AddCard(dir, card("cardid99"))
	assert.ErrorIs(t, err, ErrCardLimit)
}

func TestRemoveCard(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{
		ProjectTitle: "Shoot",
		Cards:        []manifest.Card{card("cardid01"), card("cardid02")},
	})
	m := testManager()

	rec, err := m.RemoveCard(dir, 0)
	require.NoError(t, err)
	require.Len(t, rec.Cards, 1)
	assert.Equal(t, "cardid02", rec.Cards[0].CardID)
	assert.Equal(t, rec.Cards[0].URL, *rec.ExternalReferenceURL)

	rec, err = m.RemoveCard(dir, 0)
	require.NoError(t, err)
	assert.Empty(t, rec.Cards)
	assert.Nil(t, rec.ExternalReferenceURL, "legacy field cleared with the last card")

	_, err = m.RemoveCard(dir, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLegacyURLMigration(t *testing.T) {
	t.Parallel()

	legacy := "https://trello.com/c/0ldc4rd9/legacy"
	dir := projectWith(t, &manifest.Record{
		ProjectTitle:         "Old Shoot",
		ExternalReferenceURL: &legacy,
	})

	cards, err := testManager().Cards(dir)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "0ldc4rd9", cards[0].CardID)
	assert.Equal(t, legacy, cards[0].URL)
	assert.Equal(t, "Card 0ldc4rd9", cards[0].Title)

	// Migration is in-memory: the stored record is untouched until a
	// mutation happens.
	stored, err := manifest.Read(dir)
	require.NoError(t, err)
	assert.Empty(t, stored.Cards)

	// Adding a card materializes the migrated list.
	rec, err := testManager().AddCard(dir, card("newcard1"))
	require.NoError(t, err)
	require.Len(t, rec.Cards, 2)
	assert.Equal(t, "0ldc4rd9", rec.Cards[0].CardID)
}

type fakeClient struct {
	card manifest.Card
	err  error
}

func (f fakeClient) FetchCard(context.Context, string) (manifest.Card, error) {
	return f.card, f.err
}

func TestRefreshCard(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{
		ProjectTitle: "Shoot",
		Cards:        []manifest.Card{card("cardid01")},
	})

	board := "Production"
	client := fakeClient{card: manifest.Card{Title: "Real Title", BoardName: &board}}

	rec, err := testManager().RefreshCard(context.Background(), client, dir, 0)
	require.NoError(t, err)
	got := rec.Cards[0]
	assert.Equal(t, "Real Title", got.Title)
	assert.Equal(t, "cardid01", got.CardID, "identity fields survive a refresh")
	require.NotNil(t, got.BoardName)
	assert.Equal(t, "Production", *got.BoardName)
	require.NotNil(t, got.LastFetched)
	assert.Equal(t, "2024-07-01T12:00:00Z", *got.LastFetched)
}

func TestRefreshCardFetchFailure(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{
		ProjectTitle: "Shoot",
		Cards:        []manifest.Card{card("cardid01")},
	})

	client := fakeClient{err: errors.New("unauthorized")}
	_, err := testManager().RefreshCard(context.Background(), client, dir, 0)
	assert.ErrorContains(t, err, "unauthorized")

	// Failed fetch leaves the stored card alone.
	stored, err := manifest.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "Card cardid01", stored.Cards[0].Title)
}

func link(title string) manifest.VideoLink {
	return manifest.VideoLink{URL: "https://videos.example/" + title, Title: title}
}

func TestVideoLinkLifecycle(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	m := testManager()

	rec, err := m.AddVideoLink(dir, link("rough-cut"))
	require.NoError(t, err)
	require.Len(t, rec.VideoLinks, 1)
	require.NotNil(t, rec.VideoLinks[0].AddedAt)
	assert.Equal(t, "2024-07-01T12:00:00Z", *rec.VideoLinks[0].AddedAt)

	rec, err = m.UpdateVideoLink(dir, 0, link("final-cut"))
	require.NoError(t, err)
	assert.Equal(t, "final-cut", rec.VideoLinks[0].Title)
	assert.NotNil(t, rec.VideoLinks[0].AddedAt, "addedAt preserved across update")

	rec, err = m.RemoveVideoLink(dir, 0)
	require.NoError(t, err)
	assert.Empty(t, rec.VideoLinks)

	_, err = m.RemoveVideoLink(dir, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestVideoLinkLimit(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{ProjectTitle: "Shoot"})
	m := testManager()

	for i := 0; i < MaxVideoLinks; i++ {
		_, err := m.AddVideoLink(dir, link("v"+strconv.Itoa(i)))
		require.NoError(t, err)
	}
	_, err := m.AddVideoLink(dir, link("overflow"))
	assert.ErrorIs(t, err, ErrVideoLimit)
}

func TestReorderVideoLinks(t *testing.T) {
	t.Parallel()

	dir := projectWith(t, &manifest.Record{
		ProjectTitle: "Shoot",
		VideoLinks:   []manifest.VideoLink{link("a"), link("b"), link("c")},
	})
	m := testManager()

	rec, err := m.ReorderVideoLinks(dir, 0, 2)
	require.NoError(t, err)
	titles := []string{rec.VideoLinks[0].Title, rec.VideoLinks[1].Title, rec.VideoLinks[2].Title}
	assert.Equal(t, []string{"b", "c", "a"}, titles)

	_, err = m.ReorderVideoLinks(dir, 0, 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestOperationsWithoutManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := testManager()

	cards, err := m.Cards(dir)
	require.NoError(t, err)
	assert.Empty(t, cards)

	links, err := m.VideoLinks(dir)
	require.NoError(t, err)
	assert.Empty(t, links)

	_, err = m.AddCard(dir, card("cardid01"))
	assert.ErrorIs(t, err, ErrNoManifest)
	_, err = m.AddVideoLink(dir, link("x"))
	assert.ErrorIs(t, err, ErrNoManifest)
}
