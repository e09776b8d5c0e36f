// Package villa implements the villa operations: validation, name
// uniqueness, transformation between stored villas and transfer views, and
// patch application.
package villa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/erazemk/magicvilla/internal/imaging"
	"github.com/erazemk/magicvilla/internal/model"
	"github.com/erazemk/magicvilla/internal/patch"
	"github.com/erazemk/magicvilla/internal/store"
)

// Observer receives the outcome of every operation.
type Observer interface {
	Observe(ctx context.Context, operation, outcome string, duration time.Duration)
}

// Service runs villa operations against a store. Requests are independent;
// the store is the only point of serialization, so concurrent writes to the
// same villa are last-write-wins.
type Service struct {
	store    store.Store
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports operation outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger used for internal failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImagePath is the URL a villa's uploaded image is served from.
func ImagePath(id int64) string {
	return fmt.Sprintf("/api/villa/%d/image", id)
}

// List returns every villa in store order.
func (s *Service) List(ctx context.Context) (_ []model.VillaDTO, err error) {
	const op = "villa.list"
	defer s.observe(ctx, op, time.Now(), &err)

	villas, err := s.store.List(ctx)
	if err != nil {
		return nil, s.internal(ctx, op, err)
	}
	return model.ToDTOs(villas), nil
}

// Get returns one villa.
func (s *Service) Get(ctx context.Context, id int64) (_ model.VillaDTO, err error) {
	const op = "villa.get"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := checkID(op, id); err != nil {
		return model.VillaDTO{}, err
	}

	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.VillaDTO{}, s.internal(ctx, op, err)
	}
	if v == nil {
		return model.VillaDTO{}, notFound(op, id)
	}
	return model.ToDTO(v), nil
}

// Create validates and inserts a new villa, returning it with its assigned ID.
func (s *Service) Create(ctx context.Context, in *model.VillaCreateDTO) (_ model.VillaDTO, err error) {
	const op = "villa.create"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := s.validateCreate(ctx, op, in); err != nil {
		return model.VillaDTO{}, err
	}

	v := model.FromCreateDTO(*in)
	now := s.now()
	v.CreatedAt = now
	v.UpdatedAt = now

	created, err := s.store.Insert(ctx, &v)
	if err != nil {
		return model.VillaDTO{}, s.internal(ctx, op, err)
	}

	s.logger.Info("villa created", "id", created.ID, "name", created.Name)
	return model.ToDTO(created), nil
}

// Replace overwrites every descriptive field of villa id with in. Fields
// missing from in are reset to their zero value.
func (s *Service) Replace(ctx context.Context, id int64, in *model.VillaUpdateDTO) (err error) {
	const op = "villa.replace"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := s.validateReplace(ctx, op, id, in); err != nil {
		return err
	}

	v := model.FromUpdateDTO(*in)
	v.UpdatedAt = s.now()
	return s.persist(ctx, op, &v)
}

// Patch applies doc to villa id. The document is applied to a working copy;
// if any operation fails, or the result does not validate, nothing is stored.
func (s *Service) Patch(ctx context.Context, id int64, doc patch.Document) (err error) {
	const op = "villa.patch"
	defer s.observe(ctx, op, time.Now(), &err)

	if doc == nil {
		return invalid(op, Problem{Reason: ReasonBodyRequired, Message: "patch document is required"})
	}
	if err := checkID(op, id); err != nil {
		return err
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	// Reported as invalid input, unlike Get and Delete.
	if current == nil {
		return invalid(op, Problem{Field: "id", Reason: ReasonVillaNotFound, Message: fmt.Sprintf("villa %d does not exist", id)})
	}

	view, err := model.UpdateSchema.Apply(doc, model.ToUpdateDTO(current))
	if err != nil {
		var perr *patch.Error
		if errors.As(err, &perr) {
			return invalid(op, patchProblem(perr))
		}
		return s.internal(ctx, op, err)
	}
	if err := s.validatePatched(ctx, op, &view); err != nil {
		return err
	}

	v := model.FromUpdateDTO(view)
	v.CreatedAt = current.CreatedAt
	v.UpdatedAt = s.now()
	return s.persist(ctx, op, &v)
}

// Delete removes villa id.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	const op = "villa.delete"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := checkID(op, id); err != nil {
		return err
	}

	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	if v == nil {
		return notFound(op, id)
	}

	if err := s.store.Remove(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(op, id)
		}
		return s.internal(ctx, op, err)
	}

	s.logger.Info("villa deleted", "id", id)
	return nil
}

// SetImage processes an uploaded image, stores it for villa id and points the
// villa's image URL at it.
func (s *Service) SetImage(ctx context.Context, id int64, r io.Reader) (_ model.VillaDTO, err error) {
	const op = "villa.set_image"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := checkID(op, id); err != nil {
		return model.VillaDTO{}, err
	}

	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.VillaDTO{}, s.internal(ctx, op, err)
	}
	if v == nil {
		return model.VillaDTO{}, notFound(op, id)
	}

	img, err := imaging.Process(r)
	if err != nil {
		return model.VillaDTO{}, invalid(op, Problem{Field: "image", Reason: ReasonInvalidImage, Message: err.Error()})
	}

	v.ImageURL = ImagePath(id)
	v.UpdatedAt = s.now()
	if err := s.store.SetImage(ctx, v, img.Data, img.MIME); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.VillaDTO{}, notFound(op, id)
		}
		return model.VillaDTO{}, s.internal(ctx, op, err)
	}
	return model.ToDTO(v), nil
}

// Image returns the stored image of villa id.
func (s *Service) Image(ctx context.Context, id int64) (_ []byte, _ string, err error) {
	const op = "villa.image"
	defer s.observe(ctx, op, time.Now(), &err)

	if err := checkID(op, id); err != nil {
		return nil, "", err
	}

	data, mime, err := s.store.Image(ctx, id)
	if err != nil {
		return nil, "", s.internal(ctx, op, err)
	}
	if data == nil {
		return nil, "", notFound(op, id)
	}
	return data, mime, nil
}

// Seed inserts the demo villas into an empty store.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n, err := store.Seed(ctx, s.store, s.now())
	if err != nil {
		return n, fmt.Errorf("seeding villas: %w", err)
	}
	return n, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) persist(ctx context.Context, op string, v *model.Villa) error {
	if err := s.store.Update(ctx, v); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(op, v.ID)
		}
		return s.internal(ctx, op, err)
	}
	return nil
}

func (s *Service) internal(ctx context.Context, op string, err error) *Error {
	s.logger.ErrorContext(ctx, "villa operation failed", "op", op, "error", err)
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err *error) {
	if s.observer == nil {
		return
	}
	outcome := "success"
	var e *Error
	if errors.As(*err, &e) {
		outcome = string(e.Kind)
	} else if *err != nil {
		outcome = string(KindInternal)
	}
	s.observer.Observe(ctx, op, outcome, time.Since(start))
}
