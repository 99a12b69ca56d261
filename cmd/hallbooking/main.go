package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/hall-booking/internal/application"
	"github.com/example/hall-booking/internal/config"
	httptransport "github.com/example/hall-booking/internal/http"
	"github.com/example/hall-booking/internal/persistence"
	"github.com/example/hall-booking/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	hallStore := sqlite.NewHallRepository(pool)
	bookingStore := sqlite.NewBookingRepository(pool)
	availabilityStore := sqlite.NewAvailabilityRepository(pool)
	maintenanceStore := sqlite.NewMaintenanceRepository(pool)
	issueStore := sqlite.NewIssueRepository(pool)
	userStore := sqlite.NewUserRepository(pool)
	sessionStore := sqlite.NewSessionRepository(pool)

	halls := newHallRepositoryAdapter(hallStore)
	bookings := newBookingRepositoryAdapter(bookingStore)
	availability := newAvailabilityRepositoryAdapter(availabilityStore)
	maintenance := newMaintenanceRepositoryAdapter(maintenanceStore)
	issues := newIssueRepositoryAdapter(issueStore)
	accounts := newAccountRepositoryAdapter(userStore)
	credentials := newCredentialStoreAdapter(userStore)
	sessions := newSessionRepositoryAdapter(sessionStore)

	// Booking and maintenance scheduling serialize per hall through one
	// shared lock set.
	locks := application.NewHallLocks()

	hallService := application.NewHallServiceWithLogger(halls, bookingStore, locks, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookings, maintenance, halls, locks, idGenerator, now, logger)
	maintenanceService := application.NewMaintenanceServiceWithLogger(availability, maintenance, bookings, issues, halls, locks, idGenerator, now, logger)
	issueService := application.NewIssueServiceWithLogger(issues, accounts, bookings, maintenance, locks, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentials, sessions, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserServiceWithLogger(accounts, nil, idGenerator, now, logger)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	hallHandler := httptransport.NewHallHandler(hallService, logger)
	bookingHandler := httptransport.NewBookingHandler(bookingService, logger)
	maintenanceHandler := httptransport.NewMaintenanceHandler(maintenanceService, logger)
	issueHandler := httptransport.NewIssueHandler(issueService, logger)
	userHandler := httptransport.NewUserHandler(userService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        authHandler,
		Halls:       hallHandler,
		Bookings:    bookingHandler,
		Maintenance: maintenanceHandler,
		Issues:      issueHandler,
		Users:       userHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is the only unauthenticated endpoint.
		if r.Method == http.MethodPost && strings.EqualFold(r.URL.Path, "/sessions") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("hall booking API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server encountered error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				closed, err := issueService.SweepAndCloseIssues(groupCtx)
				if err != nil {
					logger.Error("issue sweep failed", "error", err)
				} else if closed > 0 {
					logger.Info("closed issues with elapsed maintenance", "count", closed)
				}
				if err := sessions.DeleteExpiredSessions(groupCtx, now()); err != nil {
					logger.Error("session sweep failed", "error", err)
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		logger.Error("service terminated", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type hallRepositoryAdapter struct {
	repo persistence.HallRepository
}

func newHallRepositoryAdapter(repo persistence.HallRepository) *hallRepositoryAdapter {
	return &hallRepositoryAdapter{repo: repo}
}

func (a *hallRepositoryAdapter) CreateHall(ctx context.Context, hall application.Hall) error {
	return a.repo.CreateHall(ctx, toPersistenceHall(hall))
}

func (a *hallRepositoryAdapter) UpdateHall(ctx context.Context, hall application.Hall) error {
	return a.repo.UpdateHall(ctx, toPersistenceHall(hall))
}

func (a *hallRepositoryAdapter) GetHall(ctx context.Context, id string) (application.Hall, error) {
	stored, err := a.repo.GetHall(ctx, id)
	if err != nil {
		return application.Hall{}, err
	}
	return toApplicationHall(stored), nil
}

func (a *hallRepositoryAdapter) ListHalls(ctx context.Context) ([]application.Hall, error) {
	models, err := a.repo.ListHalls(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	halls := make([]application.Hall, 0, len(models))
	for _, model := range models {
		halls = append(halls, toApplicationHall(model))
	}
	return halls, nil
}

func (a *hallRepositoryAdapter) DeleteHall(ctx context.Context, id string) error {
	return a.repo.DeleteHall(ctx, id)
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) AppendBooking(ctx context.Context, booking application.Booking) error {
	return a.repo.AppendBooking(ctx, toPersistenceBooking(booking))
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) ListBookingsForHall(ctx context.Context, hallID string) ([]application.Booking, error) {
	models, err := a.repo.ListBookingsForHall(ctx, hallID)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

func (a *bookingRepositoryAdapter) ListBookingsForCustomer(ctx context.Context, customerID string) ([]application.Booking, error) {
	models, err := a.repo.ListBookingsForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

func (a *bookingRepositoryAdapter) ArchiveBooking(ctx context.Context, id string, canceledAt time.Time) (application.CanceledBooking, error) {
	stored, err := a.repo.ArchiveBooking(ctx, id, canceledAt)
	if err != nil {
		return application.CanceledBooking{}, err
	}
	return application.CanceledBooking{
		Booking:    toApplicationBooking(stored.Booking),
		CanceledAt: stored.CanceledAt,
	}, nil
}

type availabilityRepositoryAdapter struct {
	repo persistence.AvailabilityRepository
}

func newAvailabilityRepositoryAdapter(repo persistence.AvailabilityRepository) *availabilityRepositoryAdapter {
	return &availabilityRepositoryAdapter{repo: repo}
}

func (a *availabilityRepositoryAdapter) AppendWindow(ctx context.Context, window application.AvailabilityWindow) error {
	return a.repo.AppendWindow(ctx, persistence.AvailabilityWindow{
		ID:        window.ID,
		HallID:    window.HallID,
		Start:     window.Start,
		End:       window.End,
		CreatedAt: window.CreatedAt,
	})
}

func (a *availabilityRepositoryAdapter) ListWindowsForHall(ctx context.Context, hallID string) ([]application.AvailabilityWindow, error) {
	models, err := a.repo.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	windows := make([]application.AvailabilityWindow, 0, len(models))
	for _, model := range models {
		windows = append(windows, application.AvailabilityWindow{
			ID:        model.ID,
			HallID:    model.HallID,
			Start:     model.Start,
			End:       model.End,
			CreatedAt: model.CreatedAt,
		})
	}
	return windows, nil
}

type maintenanceRepositoryAdapter struct {
	repo persistence.MaintenanceRepository
}

func newMaintenanceRepositoryAdapter(repo persistence.MaintenanceRepository) *maintenanceRepositoryAdapter {
	return &maintenanceRepositoryAdapter{repo: repo}
}

func (a *maintenanceRepositoryAdapter) AppendWindowAndUpdateIssue(ctx context.Context, window application.MaintenanceWindow, issue application.Issue) error {
	return a.repo.AppendWindowAndUpdateIssue(ctx, toPersistenceMaintenanceWindow(window), toPersistenceIssue(issue))
}

func (a *maintenanceRepositoryAdapter) ListWindows(ctx context.Context) ([]application.MaintenanceWindow, error) {
	models, err := a.repo.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationMaintenanceWindows(models), nil
}

func (a *maintenanceRepositoryAdapter) ListWindowsForHall(ctx context.Context, hallID string) ([]application.MaintenanceWindow, error) {
	models, err := a.repo.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, err
	}
	return toApplicationMaintenanceWindows(models), nil
}

type issueRepositoryAdapter struct {
	repo persistence.IssueRepository
}

func newIssueRepositoryAdapter(repo persistence.IssueRepository) *issueRepositoryAdapter {
	return &issueRepositoryAdapter{repo: repo}
}

func (a *issueRepositoryAdapter) CreateIssue(ctx context.Context, issue application.Issue) error {
	return a.repo.CreateIssue(ctx, toPersistenceIssue(issue))
}

func (a *issueRepositoryAdapter) UpdateIssue(ctx context.Context, issue application.Issue) error {
	return a.repo.UpdateIssue(ctx, toPersistenceIssue(issue))
}

func (a *issueRepositoryAdapter) GetIssue(ctx context.Context, id string) (application.Issue, error) {
	stored, err := a.repo.GetIssue(ctx, id)
	if err != nil {
		return application.Issue{}, err
	}
	return toApplicationIssue(stored), nil
}

func (a *issueRepositoryAdapter) ListIssues(ctx context.Context) ([]application.Issue, error) {
	models, err := a.repo.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationIssues(models), nil
}

func (a *issueRepositoryAdapter) ListIssuesByStatus(ctx context.Context, status application.IssueStatus) ([]application.Issue, error) {
	models, err := a.repo.ListIssuesByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	return toApplicationIssues(models), nil
}

type accountRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newAccountRepositoryAdapter(repo persistence.UserRepository) *accountRepositoryAdapter {
	return &accountRepositoryAdapter{repo: repo}
}

func (a *accountRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) error {
	return a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash))
}

func (a *accountRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) error {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	return a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash))
}

func (a *accountRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *accountRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationHall(model persistence.Hall) application.Hall {
	return application.Hall{
		ID:        model.ID,
		Type:      application.HallType(model.Type),
		Capacity:  model.Capacity,
		RateCents: model.RateCents,
		Location:  model.Location,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceHall(hall application.Hall) persistence.Hall {
	return persistence.Hall{
		ID:        hall.ID,
		Type:      string(hall.Type),
		Capacity:  hall.Capacity,
		RateCents: hall.RateCents,
		Location:  hall.Location,
		CreatedAt: hall.CreatedAt,
		UpdatedAt: hall.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:         model.ID,
		CustomerID: model.CustomerID,
		HallID:     model.HallID,
		Start:      model.Start,
		End:        model.End,
		TotalCents: model.TotalCents,
		CreatedAt:  model.CreatedAt,
	}
}

func toApplicationBookings(models []persistence.Booking) []application.Booking {
	if len(models) == 0 {
		return nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:         booking.ID,
		CustomerID: booking.CustomerID,
		HallID:     booking.HallID,
		Start:      booking.Start,
		End:        booking.End,
		TotalCents: booking.TotalCents,
		CreatedAt:  booking.CreatedAt,
	}
}

func toApplicationMaintenanceWindows(models []persistence.MaintenanceWindow) []application.MaintenanceWindow {
	if len(models) == 0 {
		return nil
	}
	windows := make([]application.MaintenanceWindow, 0, len(models))
	for _, model := range models {
		windows = append(windows, application.MaintenanceWindow{
			ID:          model.ID,
			HallID:      model.HallID,
			SchedulerID: model.SchedulerID,
			IssueID:     model.IssueID,
			Start:       model.Start,
			End:         model.End,
			CreatedAt:   model.CreatedAt,
		})
	}
	return windows
}

func toPersistenceMaintenanceWindow(window application.MaintenanceWindow) persistence.MaintenanceWindow {
	return persistence.MaintenanceWindow{
		ID:          window.ID,
		HallID:      window.HallID,
		SchedulerID: window.SchedulerID,
		IssueID:     window.IssueID,
		Start:       window.Start,
		End:         window.End,
		CreatedAt:   window.CreatedAt,
	}
}

func toApplicationIssue(model persistence.Issue) application.Issue {
	return application.Issue{
		ID:                  model.ID,
		CustomerID:          model.CustomerID,
		BookingID:           model.BookingID,
		HallID:              model.HallID,
		Description:         model.Description,
		Status:              application.IssueStatus(model.Status),
		AssignedSchedulerID: model.AssignedSchedulerID,
		Resolution:          model.Resolution,
		ReportedAt:          model.ReportedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

func toApplicationIssues(models []persistence.Issue) []application.Issue {
	if len(models) == 0 {
		return nil
	}
	issues := make([]application.Issue, 0, len(models))
	for _, model := range models {
		issues = append(issues, toApplicationIssue(model))
	}
	return issues
}

func toPersistenceIssue(issue application.Issue) persistence.Issue {
	return persistence.Issue{
		ID:                  issue.ID,
		CustomerID:          issue.CustomerID,
		BookingID:           issue.BookingID,
		HallID:              issue.HallID,
		Description:         issue.Description,
		Status:              string(issue.Status),
		AssignedSchedulerID: issue.AssignedSchedulerID,
		Resolution:          issue.Resolution,
		ReportedAt:          issue.ReportedAt,
		UpdatedAt:           issue.UpdatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		Role:      application.Role(model.Role),
		Status:    application.UserStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		Status:       string(user.Status),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
