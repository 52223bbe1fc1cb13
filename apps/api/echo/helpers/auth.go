package helpers

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/school"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
)

var (
	appName         = "Madrasa"
	secretKey       []byte
	expirationDelta = 24 * time.Hour

	// AppJWTConfig is the default JWT auth middleware config.
	AppJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
)

// Setup binds the JWT settings to the loaded configuration. Must run before
// any token is issued or checked.
func Setup(conf *core.Config) {
	appName = conf.AppName
	secretKey = []byte(conf.SecretKey)
	expirationDelta = conf.Server.JWTExpirationDelta
	AppJWTConfig.SigningKey = secretKey
}

// Claims represents the authorization claims transmitted via a JWT.
// Every principal carries exactly one role; Code and Name are only set for
// school and student principals, who authenticate by code.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role,omitempty"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

func (c Claims) IsAdmin() bool  { return c.Role == user.RoleAdmin }
func (c Claims) IsSchool() bool { return c.Role == user.RoleSchool }

// ID returns the numeric principal id carried in the subject.
func (c Claims) ID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func newClaims(id int, role, code, name string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    appName,
			Subject:   strconv.Itoa(id),
			ExpiresAt: now.Add(expirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: role,
		Code: code,
		Name: name,
	}
}

func GetUserClaims(usr user.User) *Claims {
	return newClaims(usr.ID, usr.Role, "", usr.Username)
}

func GetSchoolClaims(sch school.School) *Claims {
	return newClaims(sch.ID, user.RoleSchool, sch.Code, sch.Name)
}

func GetStudentClaims(st student.Student) *Claims {
	return newClaims(st.ID, user.RoleStudent, st.StudentCode, st.FullName)
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(AppJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(secretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func GetContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(AppJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, ErrUnauthorized
}
