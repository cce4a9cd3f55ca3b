package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ejulen/very-fancy-chat/internal/adapter/metrics"
	"github.com/ejulen/very-fancy-chat/internal/domain"
	apperrors "github.com/ejulen/very-fancy-chat/internal/platform/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// EmptyContentMessage is shown to the poster when a submission is rejected.
const EmptyContentMessage = "Please enter a message."

// Fragment kinds recorded on render failures.
const (
	fragmentAdded   = "added"
	fragmentRemoved = "removed"
)

type submission struct {
	Content string `validate:"required"`
}

// Board is the message board use case. Safe for concurrent use.
type Board struct {
	// mu makes append, length check and eviction one atomic step.
	mu sync.Mutex

	store       domain.MessageStore
	renderer    domain.FragmentRenderer
	broadcaster domain.Broadcaster
	clock       clockwork.Clock
	validate    *validator.Validate
	metrics     *metrics.BoardMetrics
}

func NewBoard(store domain.MessageStore, renderer domain.FragmentRenderer, broadcaster domain.Broadcaster, clock clockwork.Clock, boardMetrics *metrics.BoardMetrics) *Board {
	return &Board{
		store:       store,
		renderer:    renderer,
		broadcaster: broadcaster,
		clock:       clock,
		validate:    validator.New(),
		metrics:     boardMetrics,
	}
}

// Post records a new message and pushes the resulting fragments to every
// subscriber. Empty content is rejected with a validation error and changes
// nothing. A render failure returns an internal error, but the window has
// already changed by then and is not rolled back.
func (b *Board) Post(ctx context.Context, authorID, content string) (*domain.Message, error) {
	if err := b.validate.StructCtx(ctx, submission{Content: content}); err != nil {
		b.metrics.MessagesPosted.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.ValidationErrorWithCause(EmptyContentMessage, domain.ErrEmptyContent).
			WithField("field", "content")
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: b.clock.Now(),
	}

	evicted, didEvict := b.commit(msg)
	b.metrics.MessagesPosted.WithLabelValues(metrics.ResultAccepted).Inc()

	// Rendering and broadcasting run outside the mutex. If later posts commit
	// and evict msg before this render finishes, its "removed" fragment can
	// reach subscribers before its "added" one; the store itself stays exact.
	var renderErrs []error

	added, err := b.renderer.RenderMessage(ctx, msg)
	if err != nil {
		b.metrics.RenderFailures.WithLabelValues(fragmentAdded).Inc()
		renderErrs = append(renderErrs, fmt.Errorf("render added fragment: %w", err))
	} else {
		b.broadcaster.Broadcast(added)
	}

	// Sent even if the added render failed.
	if didEvict {
		removed, err := b.renderer.RenderRemoval(ctx, evicted.ID)
		if err != nil {
			b.metrics.RenderFailures.WithLabelValues(fragmentRemoved).Inc()
			renderErrs = append(renderErrs, fmt.Errorf("render removed fragment: %w", err))
		} else {
			b.broadcaster.Broadcast(removed)
		}
	}

	if len(renderErrs) > 0 {
		return nil, apperrors.InternalError("failed to render live update", errors.Join(renderErrs...)).
			WithField("message_id", msg.ID)
	}

	slog.DebugContext(ctx, "Message posted", "message_id", msg.ID, "evicted", didEvict)
	return &msg, nil
}

// Messages returns the current window, oldest first.
func (b *Board) Messages() []domain.Message {
	return b.store.Snapshot()
}

// Check reports whether the window still honours its bound. It backs the
// readiness probe.
func (b *Board) Check(_ context.Context) error {
	if n := b.store.Len(); n > domain.WindowSize {
		return fmt.Errorf("board holds %d messages, limit is %d", n, domain.WindowSize)
	}
	return nil
}

func (b *Board) commit(msg domain.Message) (domain.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store.Append(msg)

	var (
		evicted  domain.Message
		didEvict bool
	)
	if b.store.Len() > domain.WindowSize {
		evicted, didEvict = b.store.EvictOldest()
		if didEvict {
			b.metrics.MessagesEvicted.Inc()
		}
	}
	b.metrics.MessagesRetained.Set(float64(b.store.Len()))

	return evicted, didEvict
}
