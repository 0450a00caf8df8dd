package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edupoint/models"
	"edupoint/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials deckt unbekannte Nutzer und falsche Passwörter
	// gleichermaßen ab; die Antwort verrät nicht, was von beidem galt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken meldet abgelaufene, widerrufene oder manipulierte Tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// MinPasswordLength entspricht der Formular-Validierung des Original-Clients.
const MinPasswordLength = 6

// Credentials sind die Registrierungs-/Login-Daten.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Auth verwaltet Konten und Sessions: Registrierung, Login mit HS256-JWT,
// Profilauflösung, Logout und das Aufräumen abgelaufener Sessions.
type Auth struct {
	gw     storage.Gateway
	log    *zap.Logger
	secret []byte
	ttl    time.Duration
}

// NewAuth erstellt den Auth-Service.
func NewAuth(gw storage.Gateway, log *zap.Logger, secret string, ttl time.Duration) *Auth {
	return &Auth{gw: gw, log: log, secret: []byte(secret), ttl: ttl}
}

// Register legt ein neues Konto mit Rolle "user" an. Username und E-Mail
// müssen frei sein (storage.ErrDuplicate sonst).
func (a *Auth) Register(ctx context.Context, creds Credentials) (*models.Admin, error) {
	username := strings.TrimSpace(creds.Username)
	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if username == "" {
		return nil, ValidationErrors{"username": "username is required"}
	}
	if email == "" {
		return nil, ValidationErrors{"email": "email is required"}
	}
	if len(creds.Password) < MinPasswordLength {
		return nil, ValidationErrors{"password": fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &models.Admin{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.gw.CreateAdmin(ctx, account); err != nil {
		return nil, err
	}

	a.log.Info("Account registered", zap.String("username", username))
	return account, nil
}

// Login prüft die Zugangsdaten, stellt ein JWT aus und legt die zugehörige
// Session an. Unbekannter Nutzer, falsches Passwort und deaktiviertes Konto
// melden einheitlich ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, username, password string) (*models.Session, error) {
	account, err := a.gw.AdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	token, err := a.signToken(account, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	session := &models.Session{
		Token:     token,
		Username:  account.Username,
		ExpiresAt: now.Add(a.ttl),
		CreatedAt: now,
	}
	if err := a.gw.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	a.log.Info("Login succeeded", zap.String("username", account.Username))
	return session, nil
}

// Authenticate validiert ein Bearer-Token gegen Signatur und Session-Bestand
// und liefert das zugehörige Konto. Widerrufene oder abgelaufene Sessions
// melden ErrInvalidToken.
func (a *Auth) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	if err := a.verifyToken(token); err != nil {
		return nil, err
	}

	session, err := a.gw.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Session widerrufen (Logout) oder nie ausgestellt
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(time.Now().UTC()) {
		_ = a.gw.DeleteSession(ctx, token)
		return nil, ErrInvalidToken
	}

	account, err := a.gw.AdminByUsername(ctx, session.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// Logout widerruft die Session zum Token. Ein bereits unbekanntes Token ist
// kein Fehler.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if err := a.gw.DeleteSession(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// IsAdmin prüft die Admin-Berechtigung über den admins-Eintrag zur E-Mail:
// role muss "admin" und isActive muss gesetzt sein.
func (a *Auth) IsAdmin(ctx context.Context, email string) bool {
	if email == "" {
		return false
	}
	account, err := a.gw.AdminByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.log.Warn("Admin lookup failed", zap.String("email", email), zap.Error(err))
		}
		return false
	}
	return account.HasAdminRights()
}

// PurgeExpiredSessions entfernt alle abgelaufenen Sessions und gibt die
// Anzahl zurück. Wird vom Cron-Job aufgerufen.
func (a *Auth) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return a.gw.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func (a *Auth) signToken(account *models.Admin, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   account.Username,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(a.ttl).Unix(),
		"jti":   uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) verifyToken(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
