package auth

import "context"

type Service interface {
	Signup(ctx context.Context, r SignupRequest) Result
	Login(ctx context.Context, r LoginRequest) Result
	UpdateAccount(ctx context.Context, session Claims, r UpdateRequest) Result
	DeleteAccount(ctx context.Context, session Claims) Result
}

// Repository owns persisted accounts. Lookups that miss return ErrNotFound;
// writes that break username or email uniqueness return a *DuplicateKeyError.
type Repository interface {
	FindByID(ctx context.Context, id ID) (*Account, error)
	FindByName(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, p Profile, passwordHash string) (*Account, error)
	UpdateByID(ctx context.Context, id ID, c ProfileChanges) (*Account, error)
	DeleteByID(ctx context.Context, id ID) (*Account, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Tokens interface {
	Issue(c Claims) (string, Claims, error)
	Verify(token string) (*Claims, error)
}

type Events interface {
	AccountCreated(id ID, username string)
	LoginSucceeded(id ID)
	LoginFailed(username string)
	AccountUpdated(id ID)
	AccountDeleted(id ID)
}

type noopEvents struct{}

func (noopEvents) AccountCreated(ID, string) {}
func (noopEvents) LoginSucceeded(ID)         {}
func (noopEvents) LoginFailed(string)        {}
func (noopEvents) AccountUpdated(ID)         {}
func (noopEvents) AccountDeleted(ID)         {}
