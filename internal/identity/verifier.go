package identity

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
)

const certsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

var ErrInvalidToken = errors.New("invalid or expired identity token")

// Claims are the identity fields extracted from a verified Firebase ID token.
type Claims struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type certCache struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	mu        sync.RWMutex
}

// Verifier checks bearer tokens issued by the Firebase project configured at
// startup. Signing certs are refreshed every 24h; verified claims are cached
// briefly so repeated requests with the same token skip signature checks.
type Verifier struct {
	cache      *certCache
	verified   *gocache.Cache
	httpClient *http.Client
	certsURL   string
	projectID  string
}

func NewVerifier(projectID string) *Verifier {
	return &Verifier{
		cache: &certCache{
			keys: make(map[string]*rsa.PublicKey),
		},
		verified:   gocache.New(5*time.Minute, 10*time.Minute),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		certsURL:   certsURL,
		projectID:  projectID,
	}
}

func (v *Verifier) fetchKeys() error {
	resp, err := v.httpClient.Get(v.certsURL)
	if err != nil {
		return fmt.Errorf("failed to fetch signing certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certs endpoint returned status %d", resp.StatusCode)
	}

	// The endpoint returns a flat kid -> PEM certificate map.
	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("failed to decode certs: %w", err)
	}

	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()

	v.cache.keys = make(map[string]*rsa.PublicKey)
	for kid, pemCert := range certs {
		pubKey, err := parseCertPublicKey(pemCert)
		if err != nil {
			continue
		}
		v.cache.keys[kid] = pubKey
	}
	v.cache.expiresAt = time.Now().Add(24 * time.Hour)
	return nil
}

func parseCertPublicKey(pemCert string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, errors.New("no PEM block in certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	pubKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate does not carry an RSA key")
	}
	return pubKey, nil
}

func (v *Verifier) getPublicKey(kid string) (*rsa.PublicKey, error) {
	v.cache.mu.RLock()
	if key, ok := v.cache.keys[kid]; ok && time.Now().Before(v.cache.expiresAt) {
		v.cache.mu.RUnlock()
		return key, nil
	}
	v.cache.mu.RUnlock()

	if err := v.fetchKeys(); err != nil {
		return nil, err
	}

	v.cache.mu.RLock()
	defer v.cache.mu.RUnlock()
	if key, ok := v.cache.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("signing key with kid %s not found", kid)
}

// VerifyToken validates an ID token and returns its identity claims.
func (v *Verifier) VerifyToken(idToken string) (*Claims, error) {
	cacheKey := hashToken(idToken)
	if cached, ok := v.verified.Get(cacheKey); ok {
		return cached.(*Claims), nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.Parse(idToken, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token header missing kid")
		}
		return v.getPublicKey(kid)
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	claims := &Claims{UID: sub}
	claims.Email, _ = mapClaims["email"].(string)
	claims.EmailVerified, _ = mapClaims["email_verified"].(bool)
	claims.Name, _ = mapClaims["name"].(string)
	claims.Picture, _ = mapClaims["picture"].(string)

	ttl := 5 * time.Minute
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		if until := time.Until(exp.Time); until < ttl {
			ttl = until
		}
	}
	if ttl > 0 {
		v.verified.Set(cacheKey, claims, ttl)
	}

	return claims, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
