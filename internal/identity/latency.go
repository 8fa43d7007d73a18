package identity

import (
    "context"
    "time"
)

type delayedBackend struct {
    next  Backend
    delay time.Duration
}

// WithLatency delays every call to next by d, standing in for the round
// trip of a remote identity provider. A non-positive d returns next as is.
func WithLatency(next Backend, d time.Duration) Backend {
    if d <= 0 {
        return next
    }
    return &delayedBackend{next: next, delay: d}
}

func (b *delayedBackend) wait(ctx context.Context) error {
    timer := time.NewTimer(b.delay)
    defer timer.Stop()
    select {
    case <-timer.C:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (b *delayedBackend) Authenticate(ctx context.Context, email, password string) (Identity, error) {
    if err := b.wait(ctx); err != nil {
        return Identity{}, err
    }
    return b.next.Authenticate(ctx, email, password)
}

func (b *delayedBackend) Register(ctx context.Context, in ProfileInput) (Identity, error) {
    if err := b.wait(ctx); err != nil {
        return Identity{}, err
    }
    return b.next.Register(ctx, in)
}

func (b *delayedBackend) CheckCode(ctx context.Context, id Identity, code string) (bool, error) {
    if err := b.wait(ctx); err != nil {
        return false, err
    }
    return b.next.CheckCode(ctx, id, code)
}
