package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"saultochat/internal/config"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/cache"
	"saultochat/internal/pkg/id"
	"saultochat/internal/pkg/jwt"
	authRepo "saultochat/internal/repository/auth"
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrNoEmail       = errors.New("could not retrieve email from Microsoft account")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidRole   = errors.New("invalid role")
)

const defaultGraphBaseURL = "https://graph.microsoft.com"

// AuthService handles Microsoft OAuth login, session tokens, and user
// administration. Accounts are provisioned on first login; there is no
// password path.
type AuthService struct {
	users        authRepo.UserStore
	states       cache.StateStore
	jwt          *jwt.JWT
	oauth        *oauth2.Config
	graphBaseURL string
	adminEmail   string
}

// NewAuthService creates the auth service.
func NewAuthService(users authRepo.UserStore, states cache.StateStore, cfg *config.AuthConfig) *AuthService {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
		Scopes:       []string{"User.Read"},
	}

	return &AuthService{
		users:        users,
		states:       states,
		jwt:          jwt.NewJWT(cfg.SessionSecret, cfg.SessionExpiry),
		oauth:        oauthCfg,
		graphBaseURL: defaultGraphBaseURL,
		adminEmail:   cfg.AdminEmail,
	}
}

// SetGraphBaseURL overrides the Microsoft Graph endpoint.
func (s *AuthService) SetGraphBaseURL(baseURL string) {
	s.graphBaseURL = baseURL
}

// LoginURL records a one-time anti-forgery token and returns the
// provider authorization URL carrying it.
func (s *AuthService) LoginURL(ctx context.Context) (string, error) {
	state := jwt.GenerateStateToken()
	if err := s.states.Put(ctx, state); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// graphProfile is the subset of the Graph /me response we consume.
type graphProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
}

// HandleCallback finishes the OAuth flow: it checks the one-time state
// token, exchanges the code, reads the profile from Microsoft Graph,
// upserts the account by email, and issues a session token.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (string, *auth.User, error) {
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", nil, fmt.Errorf("failed to check oauth state: %w", err)
	}
	if !ok {
		return "", nil, ErrStateMismatch
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return "", nil, err
	}

	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	if email == "" {
		return "", nil, ErrNoEmail
	}

	user, err := s.upsertUser(ctx, email, profile)
	if err != nil {
		return "", nil, err
	}

	session, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role.String())
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return session, user, nil
}

func (s *AuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*graphProfile, error) {
	client := s.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.graphBaseURL+"/v1.0/me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user information: status %d", resp.StatusCode)
	}

	var profile graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (s *AuthService) upsertUser(ctx context.Context, email string, profile *graphProfile) (*auth.User, error) {
	now := time.Now().UTC()

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, authRepo.ErrNotFound) {
		role := auth.RoleUser
		if s.adminEmail != "" && email == s.adminEmail {
			role = auth.RoleAdmin
		}

		user = &auth.User{
			ID:           id.New(),
			Email:        email,
			Name:         profile.DisplayName,
			JobTitle:     profile.JobTitle,
			Department:   profile.Department,
			Role:         role,
			AuthProvider: "microsoft",
			MicrosoftID:  profile.ID,
			LastLogin:    &now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		log.Info().Str("email", email).Msg("created new user")
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	// refresh with the provider's latest profile data
	if profile.DisplayName != "" {
		user.Name = profile.DisplayName
	}
	if profile.JobTitle != "" {
		user.JobTitle = profile.JobTitle
	}
	if profile.Department != "" {
		user.Department = profile.Department
	}
	if profile.ID != "" {
		user.MicrosoftID = profile.ID
	}
	user.LastLogin = &now

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info().Str("email", email).Msg("updated existing user")
	return user, nil
}

// ValidateSession parses a session token and loads the account.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.User, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, authRepo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// SessionExpiry returns the configured session lifetime.
func (s *AuthService) SessionExpiry() time.Duration {
	return s.jwt.GetExpiration()
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, authRepo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns all accounts, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]*auth.User, error) {
	return s.users.List(ctx)
}

// UpdateRole changes an account's role.
func (s *AuthService) UpdateRole(ctx context.Context, userID string, role auth.UserRole) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}

	err := s.users.UpdateRole(ctx, userID, role)
	if errors.Is(err, authRepo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// EnsureAdmin promotes the configured admin account at startup if no
// admin exists yet. An unknown admin email is only logged; the account
// is created as admin when they first log in.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	if s.adminEmail == "" {
		log.Warn().Msg("no admin email configured")
		return nil
	}

	count, err := s.users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, s.adminEmail)
	if errors.Is(err, authRepo.ErrNotFound) {
		log.Info().Str("email", s.adminEmail).Msg("admin user not found, will be created as admin on first login")
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.users.UpdateRole(ctx, user.ID, auth.RoleAdmin); err != nil {
		return err
	}
	log.Info().Str("email", s.adminEmail).Msg("promoted existing user to admin")
	return nil
}
