package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 0),
			validation.Length(0, MaxPasswordBytes).Error("must be at most 72 bytes")),
	)
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f *LoginForm) Normalize() {
	f.Email = NormalizeEmail(f.Email)
}

func (f LoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Password, validation.Required),
	)
}

type SubscribeRequest struct {
	Plan string `json:"plan"`
}

func (s SubscribeRequest) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Plan, validation.Required,
			validation.In(string(PlanFree), string(PlanPro), string(PlanEnterprise)).
				Error("must be one of free, pro, enterprise")),
	)
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (c *ContactRequest) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = NormalizeEmail(c.Email)
	c.Message = strings.TrimSpace(c.Message)
}

func (c ContactRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Message, validation.Required),
	)
}
