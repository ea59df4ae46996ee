// Package tracking manages the card and video-link associations stored
// in a project manifest. Cards point at an external tracking service;
// the manifest persists what was fetched, never credentials.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// Association limits per project.
const (
	MaxCards      = 10
	MaxVideoLinks = 20
)

// Sentinel errors.
var (
	ErrNoManifest      = errors.New("no manifest found")
	ErrCardLimit       = fmt.Errorf("maximum of %d cards per project reached", MaxCards)
	ErrDuplicateCard   = errors.New("card is already associated with the project")
	ErrVideoLimit      = fmt.Errorf("maximum of %d video links per project reached", MaxVideoLinks)
	ErrIndexOutOfRange = errors.New("index out of bounds")
	ErrInvalidCardURL  = errors.New("invalid card URL format")
)

// cardIDPattern matches the short card id in a tracking service URL,
// e.g. https://trello.com/c/a1B2c3D4/title-slug.
var cardIDPattern = regexp.MustCompile(`/c/([a-zA-Z0-9]{8,24})`)

// ParseCardID extracts the card id from a card URL.
func ParseCardID(url string) (string, error) {
	m := cardIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidCardURL
	}
	return m[1], nil
}

// Client fetches card details from the tracking service.
type Client interface {
	FetchCard(ctx context.Context, cardURL string) (manifest.Card, error)
}

// Manager reads and rewrites a project's tracking associations. Every
// mutation stamps lastModified and persists through the manifest layer,
// so writes stay atomic.
type Manager struct {
	now func() time.Time
}

// NewManager returns a Manager using the wall clock.
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Cards returns a project's cards. Manifests written before the cards
// array existed carry a single legacy externalReferenceUrl; it is
// migrated in memory so callers always see the array form.
func (m *Manager) Cards(projectPath string) ([]manifest.Card, error) {
	rec, err := manifest.Read(projectPath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return migrateLegacy(rec), nil
}

// AddCard associates a card with the project. The card id is derived
// from the URL when unset. Duplicate card ids are rejected.
func (m *Manager) AddCard(projectPath string, card manifest.Card) (*manifest.Record, error) {
	if card.CardID == "" {
		id, err := ParseCardID(card.URL)
		if err != nil {
			return nil, err
		}
		card.CardID = id
	}

	return m.mutate(projectPath, func(rec *manifest.Record) error {
		cards := migrateLegacy(rec)
		if len(cards) >= MaxCards {
			return ErrCardLimit
		}
		for _, c := range cards {
			if c.CardID == card.CardID {
				return ErrDuplicateCard
			}
		}
		rec.Cards = append(cards, card)
		syncLegacyURL(rec)
		return nil
	})
}

// RemoveCard removes the card at index.
func (m *Manager) RemoveCard(projectPath string, index int) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		cards := migrateLegacy(rec)
		if index < 0 || index >= len(cards) {
			return ErrIndexOutOfRange
		}
		rec.Cards = append(cards[:index], cards[index+1:]...)
		syncLegacyURL(rec)
		return nil
	})
}

// RefreshCard re-fetches details for the card at index and persists
// them, stamping lastFetched.
func (m *Manager) RefreshCard(ctx context.Context, client Client, projectPath string, index int) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		cards := migrateLegacy(rec)
		if index < 0 || index >= len(cards) {
			return ErrIndexOutOfRange
		}

		fetched, err := client.FetchCard(ctx, cards[index].URL)
		if err != nil {
			return fmt.Errorf("fetch card: %w", err)
		}
		fetched.URL = cards[index].URL
		fetched.CardID = cards[index].CardID
		now := m.stamp()
		fetched.LastFetched = &now

		cards[index] = fetched
		rec.Cards = cards
		syncLegacyURL(rec)
		return nil
	})
}

// VideoLinks returns a project's video links.
func (m *Manager) VideoLinks(projectPath string) ([]manifest.VideoLink, error) {
	rec, err := manifest.Read(projectPath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec.VideoLinks, nil
}

// AddVideoLink appends a video link, stamping addedAt when unset.
func (m *Manager) AddVideoLink(projectPath string, link manifest.VideoLink) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		if len(rec.VideoLinks) >= MaxVideoLinks {
			return ErrVideoLimit
		}
		if link.AddedAt == nil {
			now := m.stamp()
			link.AddedAt = &now
		}
		rec.VideoLinks = append(rec.VideoLinks, link)
		return nil
	})
}

// RemoveVideoLink removes the link at index.
func (m *Manager) RemoveVideoLink(projectPath string, index int) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		if index < 0 || index >= len(rec.VideoLinks) {
			return ErrIndexOutOfRange
		}
		rec.VideoLinks = append(rec.VideoLinks[:index], rec.VideoLinks[index+1:]...)
		return nil
	})
}

// UpdateVideoLink replaces the link at index.
func (m *Manager) UpdateVideoLink(projectPath string, index int, link manifest.VideoLink) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		if index < 0 || index >= len(rec.VideoLinks) {
			return ErrIndexOutOfRange
		}
		if link.AddedAt == nil {
			link.AddedAt = rec.VideoLinks[index].AddedAt
		}
		rec.VideoLinks[index] = link
		return nil
	})
}

// ReorderVideoLinks moves the link at from to position to.
func (m *Manager) ReorderVideoLinks(projectPath string, from, to int) (*manifest.Record, error) {
	return m.mutate(projectPath, func(rec *manifest.Record) error {
		links := rec.VideoLinks
		if from < 0 || from >= len(links) || to < 0 || to >= len(links) {
			return ErrIndexOutOfRange
		}
		moved := links[from]
		links = append(links[:from], links[from+1:]...)
		links = append(links[:to], append([]manifest.VideoLink{moved}, links[to:]...)...)
		rec.VideoLinks = links
		return nil
	})
}

// mutate runs fn against the project's manifest and writes the result
// with a fresh lastModified stamp.
func (m *Manager) mutate(projectPath string, fn func(*manifest.Record) error) (*manifest.Record, error) {
	rec, err := manifest.Read(projectPath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoManifest
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	now := m.stamp()
	rec.LastModified = &now
	if err := manifest.Write(projectPath, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *Manager) stamp() string {
	return m.now().UTC().Format(time.RFC3339)
}

// migrateLegacy returns the card list, converting a legacy
// externalReferenceUrl into a one-element list when no cards exist yet.
func migrateLegacy(rec *manifest.Record) []manifest.Card {
	if len(rec.Cards) > 0 {
		return rec.Cards
	}
	if rec.ExternalReferenceURL == nil {
		return nil
	}
	id, err := ParseCardID(*rec.ExternalReferenceURL)
	if err != nil {
		return nil
	}
	return []manifest.Card{{
		URL:    *rec.ExternalReferenceURL,
		CardID: id,
		Title:  "Card " + id,
	}}
}

// syncLegacyURL keeps externalReferenceUrl mirroring the first card so
// older readers still resolve a reference.
func syncLegacyURL(rec *manifest.Record) {
	if len(rec.Cards) == 0 {
		rec.ExternalReferenceURL = nil
		return
	}
	url := rec.Cards[0].URL
	rec.ExternalReferenceURL = &url
}
