package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
)

var (
	nowFunc        = time.Now // mockable
	contextUserKey = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsStudent    bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
	CollegeID    *int     `json:"college_id,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	svc       *user.Service
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc *user.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) userClaims(usr user.User, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			Audience:  "Admissions",
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		IsStudent:    usr.IsStudent(),
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
		CollegeID:    usr.CollegeID,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) login(ctx context.Context, email, pwd string) (string, error) {
	usr, err := a.svc.Authenticate(ctx, email, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return "", errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return "", errAccountDeactivated
		}
		return "", errors.Wrap(err, "authenticating")
	}
	return a.generateToken(a.userClaims(usr))
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := a.contextUser(ctx, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	return a.generateToken(a.userClaims(usr, claims.OrigIssuedAt))
}

func (a *authenticator) contextUser(ctx echo.Context, claims Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	usr, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get("userToken").(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return false
	}
	usr := user.User{Roles: claims.Roles}
	return usr.HasAnyRole(roles...)
}
