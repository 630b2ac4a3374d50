package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"voting_rooms/internal/logging"
	"voting_rooms/internal/model"
	"voting_rooms/internal/repository"
	"voting_rooms/internal/utils"
)

const (
	// SessionLifetime applies to sign-ins without "remember me"
	SessionLifetime = 24 * time.Hour
	// RememberedSessionLifetime applies to "remember me" sign-ins and sign-ups
	RememberedSessionLifetime = 7 * 24 * time.Hour

	defaultStoreTimeout = 5 * time.Second
)

// AuthResult is a user together with the session issued to them. Lifetime
// is what the HTTP layer must use as the cookie max-age.
type AuthResult struct {
	User     *model.User
	Session  *model.Session
	Lifetime time.Duration
}

// AuthService provides session-based authentication
type AuthService interface {
	SignUp(ctx context.Context, req model.SignUpRequest, meta model.ClientMeta) (*AuthResult, error)
	SignIn(ctx context.Context, req model.SignInRequest, meta model.ClientMeta) (*AuthResult, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (model.Principal, error)
	CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// AuthOptions tunes an AuthService
type AuthOptions struct {
	// InitialAdminEmail, when set, makes the user signing up with this
	// email an administrator.
	InitialAdminEmail string
	// StoreTimeout bounds every store call. Zero means five seconds.
	StoreTimeout time.Duration
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   utils.PasswordHasher
	log      logging.Logger

	initialAdminEmail string
	storeTimeout      time.Duration
	now               func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher utils.PasswordHasher,
	log logging.Logger,
	opts AuthOptions,
) AuthService {
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &authService{
		users:             users,
		sessions:          sessions,
		hasher:            hasher,
		log:               log.With("component", "auth"),
		initialAdminEmail: strings.TrimSpace(opts.InitialAdminEmail),
		storeTimeout:      timeout,
		now:               time.Now,
	}
}

// SignUp creates a participant account and signs it in
func (s *authService) SignUp(ctx context.Context, req model.SignUpRequest, meta model.ClientMeta) (*AuthResult, error) {
	if err := ValidateSignUp(req); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	existing, err := s.users.FindByEmail(readCtx, email)
	cancel()
	if err != nil {
		return nil, s.internal(ctx, "sign up: check existing user", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, "sign up: hash password", err)
	}

	id, err := utils.GenerateID()
	if err != nil {
		return nil, s.internal(ctx, "sign up: generate user id", err)
	}

	role := model.RoleParticipant
	if s.initialAdminEmail != "" && strings.EqualFold(email, s.initialAdminEmail) {
		role = model.RoleAdministrator
		s.log.Info(ctx, "registering initial administrator", "user_id", id)
	}

	user := &model.User{
		ID:            id,
		Name:          firstName + " " + lastName,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Phone:         strings.TrimSpace(req.Phone),
		PasswordHash:  hash,
		EmailVerified: false,
		PhoneVerified: false,
		Role:          role,
	}

	writeCtx, cancel := s.writeContext(ctx)
	err = s.users.Create(writeCtx, user)
	cancel()
	if err != nil {
		// The unique constraint is the authoritative conflict signal; the
		// pre-check above loses races against concurrent sign-ups.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, s.internal(ctx, "sign up: create user", err)
	}

	session, err := s.issueSession(ctx, user.ID, RememberedSessionLifetime, meta)
	if err != nil {
		return nil, s.internal(ctx, "sign up: create session", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user.Sanitized(), Session: session, Lifetime: RememberedSessionLifetime}, nil
}

// SignIn verifies credentials and issues a new session
func (s *authService) SignIn(ctx context.Context, req model.SignInRequest, meta model.ClientMeta) (*AuthResult, error) {
	if err := ValidateSignIn(req); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	user, err := s.users.FindByEmail(readCtx, strings.TrimSpace(req.Email))
	cancel()
	if err != nil {
		return nil, s.internal(ctx, "sign in: find user", err)
	}
	if user == nil {
		// Spend the same hashing work as for a known user.
		s.hasher.Compare(s.dummyPasswordHash(), req.Password)
		return nil, ErrUnauthenticated
	}
	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, ErrUnauthenticated
	}

	lifetime := SessionLifetime
	if req.RememberMe {
		lifetime = RememberedSessionLifetime
	}

	writeCtx, cancel := s.writeContext(ctx)
	removed, err := s.sessions.DeleteExpiredForUser(writeCtx, user.ID, s.now())
	cancel()
	if err != nil {
		s.log.Warn(ctx, "sign in: expired session cleanup failed", "user_id", user.ID, "error", err)
	} else if removed > 0 {
		s.log.Debug(ctx, "expired sessions removed", "user_id", user.ID, "count", removed)
	}

	session, err := s.issueSession(ctx, user.ID, lifetime, meta)
	if err != nil {
		return nil, s.internal(ctx, "sign in: create session", err)
	}

	s.log.Info(ctx, "user signed in", "user_id", user.ID, "remember_me", req.RememberMe)
	return &AuthResult{User: user.Sanitized(), Session: session, Lifetime: lifetime}, nil
}

// SignOut revokes the session holding token. An empty token is a no-op.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.sessions.DeleteByToken(writeCtx, token); err != nil {
		return s.internal(ctx, "sign out: delete session", err)
	}
	return nil
}

// Authenticate resolves a session token to the principal owning it
func (s *authService) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	if token == "" {
		return model.Principal{}, ErrNoToken
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	session, err := s.sessions.FindValidByToken(readCtx, token, s.now())
	if err != nil {
		return model.Principal{}, s.internal(ctx, "authenticate: find session", err)
	}
	if session == nil {
		return model.Principal{}, ErrSessionNotFound
	}

	user, err := s.users.FindByID(readCtx, session.UserID)
	if err != nil {
		return model.Principal{}, s.internal(ctx, "authenticate: find user", err)
	}
	if user == nil {
		return model.Principal{}, ErrUserMissing
	}

	return model.NewPrincipal(user, session.ID), nil
}

// CurrentUser re-reads the canonical user row behind an authenticated principal
func (s *authService) CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthenticated
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.users.FindByID(readCtx, principal.UserID)
	if err != nil {
		return nil, s.internal(ctx, "current user: find user", err)
	}
	if user == nil {
		return nil, ErrUserMissing
	}
	return user.Sanitized(), nil
}

// PurgeExpiredSessions deletes every expired session and returns how many were removed
func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	n, err := s.sessions.DeleteExpired(writeCtx, s.now())
	if err != nil {
		return 0, s.internal(ctx, "purge expired sessions", err)
	}
	s.log.Info(ctx, "expired sessions purged", "count", n)
	return n, nil
}

func (s *authService) issueSession(ctx context.Context, userID string, lifetime time.Duration, meta model.ClientMeta) (*model.Session, error) {
	id, err := utils.GenerateID()
	if err != nil {
		return nil, err
	}
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: s.now().Add(lifetime),
	}

	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.sessions.Create(writeCtx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// writeContext detaches store writes from client cancellation so a
// disconnect does not abort them halfway, while still bounding them.
func (s *authService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
}

func (s *authService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return ErrInternal
}

func (s *authService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		token, err := utils.GenerateSessionToken()
		if err != nil {
			token = "unused-password"
		}
		s.dummyHash, _ = s.hasher.Hash(token)
	})
	return s.dummyHash
}
