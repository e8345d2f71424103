package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/logan/usecasehub/internal/optimistic"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/workflow"
)

// ErrNotLoaded is returned by view mutations before the first Load.
var ErrNotLoaded = errors.New("use case not loaded")

// Detail keeps one use case current. Ratings are applied optimistically;
// status changes wait for the server.
type Detail struct {
	client *Client
	id     int

	value  *optimistic.Value[*UseCase]
	stamps refresh.Stamps
}

// NewDetail creates a view of use case id. Call Load to populate it.
func NewDetail(client *Client, id int) *Detail {
	return &Detail{client: client, id: id, value: optimistic.NewValue[*UseCase](nil)}
}

// Current returns the displayed use case, or nil before the first Load.
func (d *Detail) Current() *UseCase {
	return d.value.Get()
}

// Load fetches the use case. A response that arrives after a newer Load was
// issued is discarded.
func (d *Detail) Load(ctx context.Context) error {
	stamp := d.stamps.Issue()
	uc, err := d.client.Get(ctx, d.id)
	if err != nil {
		return err
	}
	if d.stamps.IsLatest(stamp) {
		d.value.Set(uc)
	}
	return nil
}

// AllowedNextStates lists the statuses the displayed use case may move to.
func (d *Detail) AllowedNextStates() []workflow.Status {
	uc := d.Current()
	if uc == nil {
		return nil
	}
	return workflow.AllowedNextStates(uc.Status)
}

// SetRating shows the new rating at once and rolls it back if the backend
// rejects it.
func (d *Detail) SetRating(ctx context.Context, r Rating, value int) error {
	base := d.Current()
	if base == nil {
		return ErrNotLoaded
	}
	var patch Patch
	if err := patch.SetRating(r, value); err != nil {
		return err
	}
	if err := patch.Validate(base.Status); err != nil {
		return err
	}

	next := *base
	field, err := next.ratingField(r)
	if err != nil {
		return err
	}
	*field = &value

	_, err = d.value.Apply(ctx, &next, func(ctx context.Context) (*UseCase, error) {
		return d.client.Update(ctx, base, patch)
	})
	return err
}

// ChangeStatus moves the use case along the workflow.
func (d *Detail) ChangeStatus(ctx context.Context, to workflow.Status) error {
	base := d.Current()
	if base == nil {
		return ErrNotLoaded
	}
	uc, err := d.client.ChangeStatus(ctx, base, to)
	if err != nil {
		return err
	}
	d.value.Set(uc)
	return nil
}

// Archive archives a completed use case and reloads it.
func (d *Detail) Archive(ctx context.Context) error {
	base := d.Current()
	if base == nil {
		return ErrNotLoaded
	}
	if err := d.client.Archive(ctx, base); err != nil {
		return err
	}
	return d.Load(ctx)
}

// Restore brings an archived use case back as new.
func (d *Detail) Restore(ctx context.Context) error {
	base := d.Current()
	if base == nil {
		return ErrNotLoaded
	}
	uc, err := d.client.Restore(ctx, base)
	if err != nil {
		return err
	}
	d.value.Set(uc)
	return nil
}

// Watch reloads the view after every refresh epoch until ctx is done.
func (d *Detail) Watch(ctx context.Context, signal *refresh.Signal, logger *slog.Logger) {
	watch(ctx, signal, logger, fmt.Sprintf("use case %d", d.id), d.Load)
}

// List keeps one filtered page of use cases current.
type List struct {
	client *Client

	mu     sync.Mutex
	filter Filter
	page   *ListResponse
	stamps refresh.Stamps
}

// NewList creates a list view. Call Load to populate it.
func NewList(client *Client, f Filter) *List {
	return &List{client: client, filter: f}
}

// SetFilter replaces the filter. The next Load uses it.
func (l *List) SetFilter(f Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = f
}

// Page returns the displayed page, or nil before the first Load.
func (l *List) Page() *ListResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Load fetches the page for the current filter, dropping stale responses.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	f := l.filter
	l.mu.Unlock()

	stamp := l.stamps.Issue()
	page, err := l.client.List(ctx, f)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stamps.IsLatest(stamp) {
		l.page = page
	}
	return nil
}

// Watch reloads the list after every refresh epoch until ctx is done.
func (l *List) Watch(ctx context.Context, signal *refresh.Signal, logger *slog.Logger) {
	watch(ctx, signal, logger, "use case list", l.Load)
}

func watch(ctx context.Context, signal *refresh.Signal, logger *slog.Logger, name string, load func(context.Context) error) {
	if logger == nil {
		logger = slog.Default()
	}
	for epoch := range signal.Subscribe(ctx) {
		if err := load(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("reload after refresh failed", "view", name, "epoch", epoch, "error", err)
		}
	}
}
