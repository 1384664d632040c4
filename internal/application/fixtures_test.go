package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/domain/booking"
	"github.com/parkingmate/service-parking/internal/domain/notification"
	"github.com/parkingmate/service-parking/internal/lock"
	"github.com/parkingmate/service-parking/internal/repository/memory"
)

type sentNotification struct {
	UserID uuid.UUID
	Title  string
	Type   notification.Type
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	err   error
	block chan struct{} // when set, Notify waits for it to close
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, _ string, typ notification.Type) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Type: typ})
	return n.err
}

func (n *recordingNotifier) types() []notification.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Type, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.Type
	}
	return out
}

type fakeImageStore struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failWith error
}

func (s *fakeImageStore) Upload(_ context.Context, folder, filename, _ string, body io.Reader, _ int64) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("/placeholder/%s/%s", folder, filename)
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *fakeImageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return s.failWith
}

type fixture struct {
	store         *memory.Store
	coordinator   lock.Coordinator
	notifier      *recordingNotifier
	images        *fakeImageStore
	users         *application.UserService
	bookings      *application.BookingService
	spaces        *application.SpaceService
	notifications *application.NotificationService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	coordinator lock.Coordinator
	failOpen    bool
}

func withCoordinator(c lock.Coordinator, failOpen bool) fixtureOption {
	return func(cfg *fixtureConfig) {
		cfg.coordinator = c
		cfg.failOpen = failOpen
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{coordinator: lock.NewMemoryCoordinator("test")}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := zap.NewNop()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	images := &fakeImageStore{}
	guard := lock.NewGuard(cfg.coordinator, 5*time.Second, cfg.failOpen, log)

	users := application.NewUserService(store.Users(), auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour), log)
	bookings := application.NewBookingService(
		store.Bookings(), store.Spaces(), users, guard,
		booking.NewHourlyPricingStrategy(), notifier, log,
	)
	t.Cleanup(bookings.Drain)
	return &fixture{
		store:         store,
		coordinator:   cfg.coordinator,
		notifier:      notifier,
		images:        images,
		users:         users,
		bookings:      bookings,
		spaces:        application.NewSpaceService(store.Spaces(), store.Bookings(), store.Users(), users, guard, images, log),
		notifications: application.NewNotificationService(store.Notifications(), users, log),
	}
}

// signUp registers a user and returns the identity carried by its tokens.
func (f *fixture) signUp(t *testing.T, name string) string {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	_, err := f.users.SignUp(context.Background(), application.SignUpRequest{
		Email:    email,
		Password: "password-123",
		Name:     name,
	})
	require.NoError(t, err)
	return email
}

func (f *fixture) createSpace(t *testing.T, owner string, pricePerHour int64) uuid.UUID {
	t.Helper()
	sp, err := f.spaces.CreateSpace(context.Background(), owner, application.SpaceRequest{
		Address:      "Seoul Jung-gu 1",
		Latitude:     ptr(37.5665),
		Longitude:    ptr(126.9780),
		PricePerHour: pricePerHour,
		ImageURLs:    []string{"/placeholder/parking-spaces/a.jpg"},
	})
	require.NoError(t, err)
	return sp.ID
}

func ptr(f float64) *float64 { return &f }

var base = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// unavailableCoordinator simulates a lock backend that cannot be reached.
type unavailableCoordinator struct{}

var errUnavailable = errors.New("connection refused")

func (unavailableCoordinator) Acquire(context.Context, string, time.Duration) (lock.Token, error) {
	return "", errUnavailable
}

func (unavailableCoordinator) Release(context.Context, string, lock.Token) error { return nil }
