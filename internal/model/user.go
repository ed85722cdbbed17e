// Package model はドメインモデルを定義する。
package model

import "time"

// User は外部IdPでサインインしたユーザーを表す。
// FirebaseUIDごとに1件のみ存在し、サインインのたびに同期される。
type User struct {
	ID            string
	FirebaseUID   string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	LastLoginAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
