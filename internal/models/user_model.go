package models

import "time"

type User struct {
	ID          int64     `db:"id" json:"id"`
	LinkedinID  string    `db:"linkedin_id" json:"linkedin_id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	AccessToken string    `db:"access_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
