// Package moderation decides how an inbound actor is treated before any
// routing happens.
package moderation

import (
	"context"
	"fmt"
)

// Verdict classifies an actor at the moment an event arrives.
type Verdict int

const (
	VerdictUser Verdict = iota
	VerdictAdmin
	VerdictBlocked
)

func (v Verdict) String() string {
	switch v {
	case VerdictAdmin:
		return "admin"
	case VerdictBlocked:
		return "blocked"
	default:
		return "user"
	}
}

// Directory answers membership questions from persisted state.
type Directory interface {
	IsAdmin(ctx context.Context, id int64) (bool, error)
	IsBlocked(ctx context.Context, id int64) (bool, error)
}

// Gate consults the directory on every call; nothing is cached.
type Gate struct {
	dir Directory
}

func NewGate(dir Directory) *Gate {
	return &Gate{dir: dir}
}

// Admit checks the block list first so a blocked admin is still dropped.
func (g *Gate) Admit(ctx context.Context, id int64) (Verdict, error) {
	blocked, err := g.dir.IsBlocked(ctx, id)
	if err != nil {
		return VerdictUser, fmt.Errorf("check blocked %d: %w", id, err)
	}
	if blocked {
		return VerdictBlocked, nil
	}
	admin, err := g.dir.IsAdmin(ctx, id)
	if err != nil {
		return VerdictUser, fmt.Errorf("check admin %d: %w", id, err)
	}
	if admin {
		return VerdictAdmin, nil
	}
	return VerdictUser, nil
}

// IsAdmin reports current admin membership.
func (g *Gate) IsAdmin(ctx context.Context, id int64) (bool, error) {
	ok, err := g.dir.IsAdmin(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check admin %d: %w", id, err)
	}
	return ok, nil
}

// IsBlocked reports current block-list membership.
func (g *Gate) IsBlocked(ctx context.Context, id int64) (bool, error) {
	ok, err := g.dir.IsBlocked(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check blocked %d: %w", id, err)
	}
	return ok, nil
}
