package services

import (
	"context"
	"strconv"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SectionsCacheResource is the cache namespace of the home page sections.
const SectionsCacheResource = "sections"

const slugNumberedAttempts = 5

type PoemStatusUpdater interface {
	UpdatePoemStatus(ctx context.Context, id primitive.ObjectID, from, to models.PoemStatus) (*models.Poem, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, ev *models.ModerationEvent) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev FeedEvent) error
}

// Moderator applies status changes and their side effects: audit row,
// realtime event, section cache invalidation. Side effects are best effort;
// the status change itself is what callers rely on.
type Moderator struct {
	Poems PoemStatusUpdater
	Audit AuditRecorder
	Feed  EventPublisher
	Cache *CacheService
}

// ChangeStatus validates the transition and applies it conditionally on the
// status the caller observed.
func (m *Moderator) ChangeStatus(ctx context.Context, poem *models.Poem, to models.PoemStatus, adminID, note string) (*models.Poem, error) {
	if err := poem.Status.CheckTransition(to); err != nil {
		return nil, err
	}
	updated, err := m.Poems.UpdatePoemStatus(ctx, poem.ID, poem.Status, to)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"poem_id": poem.ID.Hex(),
		"from":    poem.Status,
		"to":      to,
	})
	log.Info("poem status changed")

	if m.Audit != nil {
		ev := &models.ModerationEvent{
			PoemID:     poem.ID.Hex(),
			PoemTitle:  poem.Title,
			AdminID:    adminID,
			FromStatus: poem.Status,
			ToStatus:   to,
			Note:       note,
		}
		if err := m.Audit.Record(ctx, ev); err != nil {
			log.WithError(err).Error("failed to record moderation event")
		}
	}
	m.publish(ctx, FeedEvent{
		Type:       EventPoemStatus,
		PoemID:     poem.ID.Hex(),
		Title:      poem.Title,
		Status:     string(to),
		FromStatus: string(poem.Status),
		ActorID:    adminID,
	})
	m.InvalidateSections(ctx)
	return updated, nil
}

// Announce tells connected admins a poem was created.
func (m *Moderator) Announce(ctx context.Context, poem *models.Poem) {
	m.publish(ctx, FeedEvent{
		Type:    EventPoemCreated,
		PoemID:  poem.ID.Hex(),
		Title:   poem.Title,
		Status:  string(poem.Status),
		ActorID: poem.WriterID.Hex(),
	})
	if poem.Status == models.StatusApproved {
		m.InvalidateSections(ctx)
	}
}

func (m *Moderator) InvalidateSections(ctx context.Context) {
	if err := m.Cache.InvalidatePrefix(ctx, SectionsCacheResource); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to invalidate section cache")
	}
}

func (m *Moderator) publish(ctx context.Context, ev FeedEvent) {
	if m.Feed == nil {
		return
	}
	if err := m.Feed.Publish(ctx, ev); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to publish moderation event")
	}
}

// UniqueSlug derives a slug from the title and makes it unique with a
// numeric suffix, falling back to a short random suffix.
func UniqueSlug(ctx context.Context, exists func(context.Context, string) (bool, error), title string) (string, error) {
	base := utils.Slugify(title)
	slug := base
	for n := 2; n < 2+slugNumberedAttempts; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
	return base + "-" + uuid.NewString()[:8], nil
}
