package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/venue-seat-layout/internal/queue"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

// publishTimeout bounds how long an accepted save waits on the broker.
const publishTimeout = 3 * time.Second

// PublishingStore decorates a session.Store and announces every accepted
// save.  A publishing failure is logged and never turns an accepted save
// into an error.
type PublishingStore struct {
	next      session.Store
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

// NewPublishingStore wraps next.  A nil publisher disables publishing.
func NewPublishingStore(next session.Store, publisher EventPublisher, logger *log.Logger) *PublishingStore {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PublishingStore{next: next, publisher: publisher, logger: logger, now: time.Now}
}

// Load implements session.Store.
func (s *PublishingStore) Load(ctx context.Context, layoutID string) (session.Document, error) {
	return s.next.Load(ctx, layoutID)
}

// Save implements session.Store.
func (s *PublishingStore) Save(ctx context.Context, req session.SaveRequest) (int64, error) {
	version, err := s.next.Save(ctx, req)
	if err != nil {
		return version, err
	}
	ev := queue.LayoutSavedEvent{
		LayoutID:        req.LayoutID,
		Version:         version,
		ExpectedVersion: req.ExpectedVersion,
		Forced:          req.Force,
		Editor:          req.Editor,
		PayloadBytes:    len(req.Payload),
		SavedAt:         s.now().UTC(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := s.publisher.PublishLayoutSaved(pctx, ev); perr != nil {
		s.logger.Printf("layout-events: publish %s v%d failed: %v", req.LayoutID, version, perr)
	}
	return version, nil
}
