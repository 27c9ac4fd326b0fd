package auth

import (
	"context"
	"sync"
	"time"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[ID]*Account
}

// NewAccountRepository returns a Repository kept in process memory. It is
// safe for concurrent use and enforces username and email uniqueness on write.
func NewAccountRepository() Repository {
	return &accountRepository{accounts: map[ID]*Account{}}
}

func (repo *accountRepository) Create(_ context.Context, p Profile, passwordHash string) (*Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if field := repo.conflicting(p.Username, p.Email, ""); field != "" {
		return nil, &DuplicateKeyError{Field: field}
	}

	now := time.Now().UTC()
	acc := &Account{
		ID:           NewID(),
		Username:     p.Username,
		Fullname:     p.Fullname,
		Email:        p.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	repo.accounts[acc.ID] = acc

	cp := *acc
	return &cp, nil
}

func (repo *accountRepository) UpdateByID(_ context.Context, id ID, c ProfileChanges) (*Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acc, ok := repo.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if field := repo.conflicting(deref(c.Username), deref(c.Email), id); field != "" {
		return nil, &DuplicateKeyError{Field: field}
	}

	if !c.IsEmpty() {
		acc.apply(c)
		acc.UpdatedAt = time.Now().UTC()
	}

	cp := *acc
	return &cp, nil
}

func (repo *accountRepository) DeleteByID(_ context.Context, id ID) (*Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acc, ok := repo.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(repo.accounts, id)
	return acc, nil
}

func (repo *accountRepository) FindByID(_ context.Context, id ID) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if acc, ok := repo.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByName(_ context.Context, username string) (*Account, error) {
	return repo.findBy(func(acc *Account) bool { return acc.Username == username })
}

func (repo *accountRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	return repo.findBy(func(acc *Account) bool { return acc.Email == email })
}

func (repo *accountRepository) findBy(match func(*Account) bool) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, v := range repo.accounts {
		if match(v) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// conflicting must be called with mu held.
func (repo *accountRepository) conflicting(username, email string, self ID) string {
	for _, v := range repo.accounts {
		if v.ID == self {
			continue
		}
		if username != "" && v.Username == username {
			return fieldUsername
		}
		if email != "" && v.Email == email {
			return fieldEmail
		}
	}
	return ""
}
