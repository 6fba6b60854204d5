// Package auth owns admin accounts and sessions. A session is a signed token whose
// jti names a row in the sessions table; revoking the row ends the session even
// though the token has not expired.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"chitti-admin/internal/config"
	"chitti-admin/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionEnded       = errors.New("session expired or revoked")
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is what the guard attaches to an authenticated request.
type Identity struct {
	AdminID   uint      `json:"admin_id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, secret: []byte(cfg.JWTSecret), ttl: cfg.SessionTTL(), now: time.Now}
}

// EnsureAdmin creates username with password unless an account by that name exists.
// Existing passwords are never overwritten.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("admin username is empty")
	}
	var existing models.Admin
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	if password == "" {
		return fmt.Errorf("no admin %q and ADMIN_PASSWORD is empty", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := models.Admin{Username: username, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("created admin account %q", username)
	return nil
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password, userAgent, clientIP string) (string, *Identity, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("look up admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := models.Session{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		UserAgent: userAgent,
		ClientIP:  clientIP,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&admin).Update("last_login_at", now).Error; err != nil {
		log.Printf("update last login for %q: %v", admin.Username, err)
	}

	claims := Claims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, &Identity{AdminID: admin.ID, Username: admin.Username, SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// Verify checks the token signature and expiry, then that its session is still open.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	var sess models.Session
	err = s.db.WithContext(ctx).Preload("Admin").Where("id = ?", claims.ID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionEnded
	}
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if !sess.Active(s.now()) {
		return nil, ErrSessionEnded
	}
	return &Identity{AdminID: sess.AdminID, Username: sess.Admin.Username, SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout revokes one session. Revoking an already revoked session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", s.now()).Error
}

// PurgeExpired deletes sessions that ended before cutoff.
func (s *Service) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
