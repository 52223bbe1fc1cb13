package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles. Every authenticated call carries exactly one.
const (
	RoleAdmin   = "admin"
	RoleSchool  = "school"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleSchool, RoleStudent}

// User is an administrator identity in the users table. School and student
// principals authenticate by code and never have a row here.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetPassword hashes pwd with a random salt and stores the hash.
func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares pwd against the stored hash.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}
