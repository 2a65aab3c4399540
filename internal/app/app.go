package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"learnhub/internal/aiclient"
	"learnhub/internal/apiclient"
	"learnhub/internal/authclient"
	"learnhub/internal/courseclient"
	"learnhub/internal/metrics"
	"learnhub/internal/recommend"
	"learnhub/pkg/domain"
	"learnhub/pkg/kv"
	"learnhub/pkg/session"
)

// Config holds runtime configuration for the application.
type Config struct {
	BaseURL string
	Store   kv.Store
	Logger  *slog.Logger
	Metrics *metrics.Collector
	// HTTPClient and Now are overridden in tests.
	HTTPClient *http.Client
	Now        func() time.Time
}

// App owns the local store, the session and the API clients. Every user
// facing operation goes through it.
type App struct {
	store    kv.Store
	sessions *session.Store
	auth     *authclient.Client
	courses  *courseclient.Client
	cache    *recommend.Cache
	logger   *slog.Logger
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name            string
	Username        string
	Password        string
	ConfirmPassword string
	Role            domain.UserRole
}

// New wires the application over cfg.Store.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("app: store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := session.NewStore(cfg.Store, logger)

	apiCfg := apiclient.Config{
		BaseURL:    cfg.BaseURL,
		Tokens:     sessions,
		Logger:     logger,
		HTTPClient: cfg.HTTPClient,
	}
	cacheOpts := []recommend.Option{recommend.WithLogger(logger)}
	if cfg.Metrics != nil {
		apiCfg.Metrics = cfg.Metrics
		cacheOpts = append(cacheOpts, recommend.WithMetrics(cfg.Metrics))
	}
	if cfg.Now != nil {
		cacheOpts = append(cacheOpts, recommend.WithClock(cfg.Now))
	}
	api, err := apiclient.NewClient(apiCfg)
	if err != nil {
		return nil, err
	}

	return &App{
		store:    cfg.Store,
		sessions: sessions,
		auth:     authclient.NewClient(api),
		courses:  courseclient.NewClient(api),
		cache:    recommend.New(cfg.Store, aiclient.NewClient(api), cacheOpts...),
		logger:   logger,
	}, nil
}

// Login authenticates and stores the session. A failed local write is
// logged; the login itself still counts.
func (a *App) Login(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Session{}, invalid("username", "username is required")
	}
	if password == "" {
		return domain.Session{}, invalid("password", "password is required")
	}
	res := a.auth.Login(ctx, username, password)
	if !res.OK() {
		return domain.Session{}, res.Err()
	}
	return a.keepSession(ctx, *res.Value), nil
}

// Register creates an account and stores the returned session.
func (a *App) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	req := authclient.RegisterRequest{
		Name:     strings.TrimSpace(in.Name),
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
		Role:     in.Role,
	}
	switch {
	case req.Name == "":
		return domain.Session{}, invalid("name", "name is required")
	case req.Username == "":
		return domain.Session{}, invalid("username", "username is required")
	case req.Password == "":
		return domain.Session{}, invalid("password", "password is required")
	case req.Password != in.ConfirmPassword:
		return domain.Session{}, invalid("confirmPassword", "passwords do not match")
	}
	if req.Role == "" {
		req.Role = domain.RoleStudent
	}
	if !req.Role.Valid() {
		return domain.Session{}, invalid("role", "role must be student or instructor")
	}
	res := a.auth.Register(ctx, req)
	if !res.OK() {
		return domain.Session{}, res.Err()
	}
	return a.keepSession(ctx, *res.Value), nil
}

func (a *App) keepSession(ctx context.Context, sess domain.Session) domain.Session {
	if err := a.sessions.Save(ctx, sess); err != nil {
		a.logger.Error("failed to store session", "err", err)
	}
	return sess
}

// Logout removes the stored session.
func (a *App) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

// Session returns the stored session, if any.
func (a *App) Session(ctx context.Context) (domain.Session, bool, error) {
	return a.sessions.Load(ctx)
}

func (a *App) Profile(ctx context.Context) (*domain.User, error) {
	res := a.auth.Profile(ctx)
	return res.Value, res.Err()
}

// Courses lists the catalog. A non-empty query keeps courses whose title
// contains it, ignoring case.
func (a *App) Courses(ctx context.Context, query string) ([]domain.Course, error) {
	res := a.courses.List(ctx)
	if !res.OK() {
		return res.Value, res.Err()
	}
	return filterByTitle(res.Value, query), nil
}

func (a *App) Course(ctx context.Context, id string) (*domain.Course, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "course id is required")
	}
	res := a.courses.Get(ctx, id)
	return res.Value, res.Err()
}

// Enroll loads the course and the current user together and enrolls when
// the local checks pass.
func (a *App) Enroll(ctx context.Context, id string) (*domain.Course, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "course id is required")
	}
	var (
		course *domain.Course
		user   *domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := a.courses.Get(gctx, id)
		course = res.Value
		return res.Err()
	})
	g.Go(func() error {
		res := a.auth.Profile(gctx)
		user = res.Value
		return res.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a.EnrollLoaded(ctx, course, user)
}

// EnrollLoaded enrolls user in an already loaded course. Duplicate and own
// course enrollments are refused locally.
func (a *App) EnrollLoaded(ctx context.Context, course *domain.Course, user *domain.User) (*domain.Course, error) {
	if course == nil || course.ID == "" {
		return nil, invalid("course", "course is required")
	}
	if user != nil && user.ID != "" {
		if course.IsEnrolled(user.ID) {
			return nil, ErrAlreadyEnrolled
		}
		if course.TaughtBy(user.ID) {
			return nil, ErrOwnCourse
		}
	}
	res := a.courses.Enroll(ctx, course.ID)
	return res.Value, res.Err()
}

func (a *App) EnrolledCourses(ctx context.Context) ([]domain.Course, error) {
	res := a.courses.Enrolled(ctx)
	return res.Value, res.Err()
}

func (a *App) InstructorCourses(ctx context.Context) ([]domain.Course, error) {
	res := a.courses.InstructorCourses(ctx)
	return res.Value, res.Err()
}

func (a *App) CreateCourse(ctx context.Context, in domain.CourseInput) (*domain.Ack, error) {
	in, err := a.checkCourseInput(ctx, in)
	if err != nil {
		return nil, err
	}
	res := a.courses.Create(ctx, in)
	return res.Value, res.Err()
}

func (a *App) UpdateCourse(ctx context.Context, id string, in domain.CourseInput) (*domain.Ack, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "course id is required")
	}
	in, err := a.checkCourseInput(ctx, in)
	if err != nil {
		return nil, err
	}
	res := a.courses.Update(ctx, id, in)
	return res.Value, res.Err()
}

func (a *App) DeleteCourse(ctx context.Context, id string) (*domain.Ack, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "course id is required")
	}
	if err := a.requireInstructor(ctx); err != nil {
		return nil, err
	}
	res := a.courses.Delete(ctx, id)
	return res.Value, res.Err()
}

func (a *App) checkCourseInput(ctx context.Context, in domain.CourseInput) (domain.CourseInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Content = strings.TrimSpace(in.Content)
	switch {
	case in.Title == "":
		return in, invalid("title", "title is required")
	case in.Description == "":
		return in, invalid("description", "description is required")
	case in.Content == "":
		return in, invalid("content", "content is required")
	}
	return in, a.requireInstructor(ctx)
}

// requireInstructor only refuses a stored student role; the backend has the
// final say for everything else.
func (a *App) requireInstructor(ctx context.Context) error {
	sess, ok, err := a.sessions.Load(ctx)
	if err != nil {
		a.logger.Warn("failed to read session role", "err", err)
		return nil
	}
	if ok && sess.Role == domain.RoleStudent {
		return ErrInstructorOnly
	}
	return nil
}

// SaveInterests stores the free-text interests used as the recommendation
// prompt.
func (a *App) SaveInterests(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return invalid("interests", "interests are required")
	}
	return a.store.Set(ctx, kv.KeyUserInterests, text)
}

// Interests returns the saved interests, or "" when none are saved.
func (a *App) Interests(ctx context.Context) (string, error) {
	v, _, err := a.store.Get(ctx, kv.KeyUserInterests)
	return strings.TrimSpace(v), err
}

// Recommendations returns AI recommendations for the saved interests.
func (a *App) Recommendations(ctx context.Context, refresh bool) ([]domain.Course, error) {
	return a.cache.Recommendations(ctx, a.storedInterests(ctx), refresh)
}

// storedInterests reads the saved interests for operations that must go on
// without them. A failed read counts as nothing saved.
func (a *App) storedInterests(ctx context.Context) string {
	interests, err := a.Interests(ctx)
	if err != nil {
		a.logger.Warn("saved interests unreadable", "err", err)
		return ""
	}
	return interests
}

func filterByTitle(courses []domain.Course, query string) []domain.Course {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return courses
	}
	out := []domain.Course{}
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Title), query) {
			out = append(out, c)
		}
	}
	return out
}
