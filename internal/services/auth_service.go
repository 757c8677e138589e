package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smartbus/internal/clock"
	intdb "smartbus/internal/db"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/session"
)

const (
	MsgEmailInUse         = "This email is already in use. Try logging in instead."
	MsgInvalidCredentials = "Invalid email or password."
	msgAdminCheckFailed   = "Admin check failed. Please try again later."
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type AdminFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type SignUpForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// Validate reports the first problem, in form order.
func (f SignUpForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Username) == "":
		return domain.ValidationError{Field: "username", Msg: "Username required"}
	case !emailPattern.MatchString(f.Email):
		return domain.ValidationError{Field: "email", Msg: "Invalid email"}
	case len(f.Password) < 6:
		return domain.ValidationError{Field: "password", Msg: "Password too short"}
	case f.Password != f.Confirm:
		return domain.ValidationError{Field: "confirm", Msg: "Passwords do not match"}
	}
	return nil
}

type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f SignInForm) Validate() error {
	switch {
	case !emailPattern.MatchString(f.Email):
		return domain.ValidationError{Field: "email", Msg: "Invalid email"}
	case f.Password == "":
		return domain.ValidationError{Field: "password", Msg: "Password required"}
	}
	return nil
}

// Claims are carried in the bearer token. Subject is the user id; it is
// empty for an admin who signed in with admin credentials only.
type Claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) RequestContext() domain.RequestContext {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return domain.RequestContext{
		UserID:    domain.ID(id),
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
}

type AdminView struct {
	SessionID   string    `json:"session_id"`
	Email       string    `json:"email"`
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func adminView(s session.Session) *AdminView {
	return &AdminView{
		SessionID:   s.ID,
		Email:       s.Email,
		CompanyID:   s.CompanyID,
		CompanyName: s.CompanyName,
		ExpiresAt:   s.ExpiresAt,
	}
}

type AuthResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      *models.PublicUser `json:"user,omitempty"`
	Admin     *AdminView         `json:"admin,omitempty"`
	Notice    string             `json:"notice,omitempty"`
}

type AuthService struct {
	Users    UserStore
	Admins   AdminFinder
	Sessions session.Store
	Clock    clock.Clock
	Secret   []byte
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func (s AuthService) SignUp(ctx context.Context, form SignUpForm) (AuthResult, error) {
	if err := form.Validate(); err != nil {
		return AuthResult{}, err
	}
	exists, err := s.Users.ExistsByEmail(ctx, form.Email)
	if err != nil {
		return AuthResult{}, classifyAuthError(err)
	}
	if exists {
		return AuthResult{}, domain.ConflictError{Msg: MsgEmailInUse}
	}
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), cost)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "could not hash password", Err: err}
	}

	u := &models.User{
		Username:     strings.TrimSpace(form.Username),
		Email:        form.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return AuthResult{}, classifyAuthError(err)
	}
	log.Printf("[AUTH] signup user_id=%d", u.ID)

	pub := u.ToPublic()
	res := AuthResult{User: &pub}
	s.detectAdmin(ctx, form.Email, form.Password, &res)
	return s.finish(res, strconv.FormatInt(u.ID, 10), u.Email)
}

// SignIn checks user credentials. When they fail but the email and password
// match an admin, an admin-only session is opened instead.
func (s AuthService) SignIn(ctx context.Context, form SignInForm) (AuthResult, error) {
	if err := form.Validate(); err != nil {
		return AuthResult{}, err
	}

	u, err := s.Users.FindByEmail(ctx, form.Email)
	if err != nil && !domain.IsNotFound(err) {
		return AuthResult{}, classifyAuthError(err)
	}
	if u != nil && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Password)) == nil {
		pub := u.ToPublic()
		res := AuthResult{User: &pub}
		s.detectAdmin(ctx, form.Email, form.Password, &res)
		log.Printf("[AUTH] signin user_id=%d admin=%t", u.ID, res.Admin != nil)
		return s.finish(res, strconv.FormatInt(u.ID, 10), u.Email)
	}

	var res AuthResult
	s.detectAdmin(ctx, form.Email, form.Password, &res)
	if res.Admin == nil {
		return AuthResult{}, domain.UnauthorizedError{Msg: MsgInvalidCredentials}
	}
	log.Printf("[AUTH] admin-only signin company_id=%d", res.Admin.CompanyID)
	return s.finish(res, "", res.Admin.Email)
}

// Logout closes the admin session carried by the token, if any.
func (s AuthService) Logout(ctx context.Context, c Claims) error {
	if c.SessionID == "" {
		return nil
	}
	return s.Sessions.Close(ctx, c.SessionID)
}

// AdminSession resolves the live admin session behind a token.
func (s AuthService) AdminSession(ctx context.Context, c Claims) (session.Session, error) {
	if c.Role != domain.RoleAdmin || c.SessionID == "" {
		return session.Session{}, domain.UnauthorizedError{Msg: "admin session required"}
	}
	sess, err := s.Sessions.Get(ctx, c.SessionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return session.Session{}, domain.UnauthorizedError{Msg: "admin session expired", Err: err}
		}
		return session.Session{}, err
	}
	return sess, nil
}

func (s AuthService) ParseToken(raw string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Clock.Now))
	if err != nil {
		return Claims{}, domain.UnauthorizedError{Msg: "invalid or expired token", Err: err}
	}
	return c, nil
}

// detectAdmin opens an admin session when the credentials match an admin
// row and closes any stale one otherwise.
func (s AuthService) detectAdmin(ctx context.Context, email, password string, res *AuthResult) {
	a, err := s.Admins.FindByEmail(ctx, email)
	if err != nil && !domain.IsNotFound(err) {
		log.Printf("[AUTH] admin lookup failed: %v", err)
		res.Notice = msgAdminCheckFailed
		return
	}
	if a == nil || bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		if err := s.Sessions.CloseByEmail(ctx, email); err != nil {
			log.Printf("[AUTH] close admin session failed: %v", err)
		}
		return
	}
	sess, err := s.Sessions.Open(ctx, session.Session{
		AdminID:     a.ID,
		Email:       a.Email,
		CompanyID:   a.CompanyID,
		CompanyName: a.CompanyName,
	})
	if err != nil {
		log.Printf("[AUTH] open admin session failed: %v", err)
		res.Notice = msgAdminCheckFailed
		return
	}
	res.Admin = adminView(sess)
	res.Notice = "Admin access enabled."
}

func (s AuthService) finish(res AuthResult, subject, email string) (AuthResult, error) {
	now := s.Clock.Now()
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := Claims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  displayName(res),
		Role:  domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if res.Admin != nil {
		c.Role = domain.RoleAdmin
		c.SessionID = res.Admin.SessionID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "could not sign token", Err: err}
	}
	res.Token = token
	res.ExpiresAt = now.Add(ttl)
	return res, nil
}

func displayName(res AuthResult) string {
	if res.User != nil {
		return res.User.Username
	}
	if res.Admin != nil {
		return res.Admin.CompanyName
	}
	return ""
}

var duplicateHints = []string{
	"already registered",
	"already exists",
	"already in use",
	"duplicate entry",
	"duplicate key",
}

// classifyAuthError maps storage errors to what the sign-in form shows.
// Driver error types are checked first; message matching is the fallback.
func classifyAuthError(err error) error {
	if domain.IsConflict(err) || intdb.IsDuplicateKey(err) {
		return domain.ConflictError{Msg: MsgEmailInUse, Err: err}
	}
	var unauthorized domain.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return err
	}
	lower := strings.ToLower(err.Error())
	for _, hint := range duplicateHints {
		if strings.Contains(lower, hint) {
			return domain.ConflictError{Msg: MsgEmailInUse, Err: err}
		}
	}
	if strings.Contains(lower, "invalid login credentials") {
		return domain.UnauthorizedError{Msg: MsgInvalidCredentials, Err: err}
	}
	return domain.InternalError{Msg: err.Error(), Err: err}
}
