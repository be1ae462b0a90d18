package identity

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/maikmano/zentask/domain"
)

// Verifier validates identity tokens issued by the provider.
type Verifier struct {
	jwks       *keyfunc.JWKS
	audience   string
	issuer     string
	testSecret []byte
	parser     *jwt.Parser
}

// NewVerifier creates a Verifier backed by the provider's JWKS.
func NewVerifier(jwks *keyfunc.JWKS, audience, issuer string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
	}
}

// NewTestVerifier creates a Verifier that accepts HS256 tokens signed with
// the shared secret. Local development only.
func NewTestVerifier(secret []byte) *Verifier {
	return &Verifier{
		testSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Verify parses the token and returns the identity it asserts.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	var parsed *jwt.Token
	var err error
	if v.testSecret != nil {
		parsed, err = v.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return v.testSecret, nil
		})
	} else {
		if v.jwks == nil {
			return domain.Identity{}, errors.New("jwks not configured")
		}
		parsed, err = v.parser.Parse(token, v.jwks.Keyfunc)
	}
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return domain.Identity{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return domain.Identity{}, errors.New("token not valid yet")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, false) {
		return domain.Identity{}, errors.New("invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, false) {
		return domain.Identity{}, errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.Identity{}, errors.New("missing sub")
	}

	id := domain.Identity{UID: sub}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	if picture, ok := claims["picture"].(string); ok {
		id.AvatarURL = picture
	}
	return id, nil
}
