package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	// ErrBadPasscode is returned when the operator passcode does not match.
	ErrBadPasscode = errors.New("invalid passcode")
	// ErrWrongKind is returned when a refresh token is used as access or vice versa.
	ErrWrongKind = errors.New("wrong token kind")
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"access_expires_at"`
	RefreshExp   time.Time `json:"refresh_expires_at"`
}

// Claims represents JWT payload.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs session tokens for the operator.
type Issuer struct {
	Name       string
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Passcode   string
	now        func() time.Time
}

// NewIssuer creates an issuer with HS256 signing.
func NewIssuer(name, key, passcode string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{Name: name, Key: []byte(key), Passcode: passcode, AccessTTL: accessTTL, RefreshTTL: refreshTTL, now: time.Now}
}

// Login checks the passcode and issues a token pair for subject.
func (i *Issuer) Login(subject, passcode string) (TokenPair, error) {
	if subtle.ConstantTimeCompare([]byte(passcode), []byte(i.Passcode)) != 1 {
		return TokenPair{}, ErrBadPasscode
	}
	return i.Issue(subject)
}

// Refresh exchanges a valid refresh token for a new pair.
func (i *Issuer) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := i.Parse(refreshToken, KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return i.Issue(claims.Subject)
}

// Issue issues signed access and refresh tokens.
func (i *Issuer) Issue(subject string) (TokenPair, error) {
	now := i.now()
	pair := TokenPair{AccessExp: now.Add(i.AccessTTL), RefreshExp: now.Add(i.RefreshTTL)}

	var err error
	if pair.AccessToken, err = i.sign(subject, KindAccess, now, pair.AccessExp); err != nil {
		return TokenPair{}, err
	}
	if pair.RefreshToken, err = i.sign(subject, KindRefresh, now, pair.RefreshExp); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (i *Issuer) sign(subject, kind string, now, exp time.Time) (string, error) {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Name,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Key)
}

// Parse validates a token of the given kind and returns claims.
func (i *Issuer) Parse(tokenStr, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.Key, nil
	}, jwt.WithIssuer(i.Name), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Kind != kind {
		return Claims{}, ErrWrongKind
	}
	return *claims, nil
}
