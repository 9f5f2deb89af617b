package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for every stored hash.
const PasswordCost = 10

var ErrEmptyPassword = errors.New("password must not be empty")

// dummyHash is compared against when a login names an unknown account, so that
// path costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("globizora-dummy-password"), PasswordCost)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash. bcrypt compares in constant time.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
