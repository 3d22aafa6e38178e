package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential roles
const (
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

var errWrongRole = errors.New("token role mismatch")

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and validates the HS256 credentials handed to volunteers and admins
type SessionIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	adminTTL   time.Duration
	now        func() time.Time
}

// NewSessionIssuer creates a new session issuer
func NewSessionIssuer(secret string, sessionTTL, adminTTL time.Duration) *SessionIssuer {
	return &SessionIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		adminTTL:   adminTTL,
		now:        time.Now,
	}
}

// IssueVolunteer returns a session token bound to the volunteer id
func (s *SessionIssuer) IssueVolunteer(volunteerID int64) (string, time.Time, error) {
	return s.issue(RoleVolunteer, strconv.FormatInt(volunteerID, 10), s.sessionTTL)
}

// ValidateVolunteer returns the volunteer id carried by a session token
func (s *SessionIssuer) ValidateVolunteer(tokenString string) (int64, error) {
	subject, err := s.validate(tokenString, RoleVolunteer)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject: %w", err)
	}
	return id, nil
}

// IssueAdmin returns an admin token
func (s *SessionIssuer) IssueAdmin() (string, time.Time, error) {
	return s.issue(RoleAdmin, RoleAdmin, s.adminTTL)
}

// ValidateAdmin checks an admin token
func (s *SessionIssuer) ValidateAdmin(tokenString string) error {
	_, err := s.validate(tokenString, RoleAdmin)
	return err
}

func (s *SessionIssuer) issue(role, subject string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *SessionIssuer) validate(tokenString, role string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	if claims.Role != role {
		return "", errWrongRole
	}

	return claims.Subject, nil
}
