package identity

import (
    "context"
    "crypto/subtle"
    "errors"
    "fmt"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"
)

// DemoCode is the one-time passcode accepted by the demo backend.
const DemoCode = "123456"

// ErrNoMatch is returned when a login pair matches no known account.
var ErrNoMatch = errors.New("no matching account")

// Backend is the remote side of the session lifecycle. The demo backend
// answers locally; a real identity provider client can replace it without
// changing the session manager.
type Backend interface {
    Authenticate(ctx context.Context, email, password string) (Identity, error)
    Register(ctx context.Context, in ProfileInput) (Identity, error)
    CheckCode(ctx context.Context, id Identity, code string) (bool, error)
}

type demoSeed struct {
    password string
    identity Identity
}

var demoSeeds = []demoSeed{
    {
        password: "Admin123",
        identity: Identity{
            ID:           "admin",
            Name:         "Administrator",
            Email:        "Admin",
            Phone:        "+91-9999999999",
            PhoneNumber:  "+91-9999999999",
            AadharNumber: "ADMIN-0000-0000",
            Verified:     true,
        },
    },
    {
        password: "password",
        identity: Identity{
            ID:           "1",
            Name:         "Demo User",
            Email:        "demo@example.com",
            Phone:        "+91-9876543210",
            PhoneNumber:  "+91-9876543210",
            AadharNumber: "1234-5678-9012",
            Verified:     true,
        },
    },
}

type account struct {
    hash     []byte
    identity Identity
}

// DemoBackend knows the administrator and demo accounts and a single fixed
// passcode. Signup always succeeds.
type DemoBackend struct {
    accounts map[string]account
    code     string
}

// NewDemoBackend hashes the built-in passwords and returns the backend.
func NewDemoBackend() (*DemoBackend, error) {
    b := &DemoBackend{accounts: make(map[string]account, len(demoSeeds)), code: DemoCode}
    for _, seed := range demoSeeds {
        // fixtures only; the cost factor does not protect anything here
        hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.MinCost)
        if err != nil {
            return nil, fmt.Errorf("hash demo password: %w", err)
        }
        b.accounts[seed.identity.Email] = account{hash: hash, identity: seed.identity}
    }
    return b, nil
}

// Authenticate performs an exact-match lookup of the login key and compares
// the password against the stored hash.
func (b *DemoBackend) Authenticate(_ context.Context, email, password string) (Identity, error) {
    acct, ok := b.accounts[email]
    if !ok {
        return Identity{}, ErrNoMatch
    }
    if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
        return Identity{}, ErrNoMatch
    }
    return acct.identity, nil
}

// Register builds a new unverified identity. Duplicate emails are allowed.
func (b *DemoBackend) Register(_ context.Context, in ProfileInput) (Identity, error) {
    in = in.Normalize()
    if err := in.Validate(); err != nil {
        return Identity{}, err
    }
    return Identity{
        ID:           uuid.NewString(),
        Name:         in.Name,
        Email:        in.Email,
        Phone:        in.Phone,
        PhoneNumber:  in.Phone,
        AadharNumber: in.AadharNumber,
        Verified:     false,
    }, nil
}

// CheckCode accepts only the fixed demo passcode.
func (b *DemoBackend) CheckCode(_ context.Context, _ Identity, code string) (bool, error) {
    return subtle.ConstantTimeCompare([]byte(code), []byte(b.code)) == 1, nil
}
