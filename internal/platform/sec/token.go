// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "github.com/google/uuid"

// TokenGenerator is the source of opaque session tokens.
type TokenGenerator interface {
	NewToken() string
}

// UUIDTokens generates tokens from random (version 4) UUIDs.
//
// Tokens must carry no timestamp bits, so UUIDv7 is not an option here.
type UUIDTokens struct{}

// NewToken returns a fresh random token.
func (UUIDTokens) NewToken() string {
	return uuid.NewString()
}
