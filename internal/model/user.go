package model

import "time"

// User represents a registered wallet owner, identified by email.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Wallet represents the single portfolio owned by a user.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WalletOwner is returned when a wallet is created.
type WalletOwner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	WalletID  string    `json:"walletId"`
	CreatedAt time.Time `json:"createdAt"`
}
