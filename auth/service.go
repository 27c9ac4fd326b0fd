package auth

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type service struct {
	accounts Repository
	hasher   Hasher
	tokens   Tokens
	events   Events
	log      logrus.FieldLogger

	// dummyHash is verified against on unknown usernames so a miss costs
	// the same as a wrong password.
	dummyHash string
}

type Option func(*service)

func WithEvents(e Events) Option {
	return func(svc *service) { svc.events = e }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(svc *service) { svc.log = l }
}

func NewService(accounts Repository, hasher Hasher, tokens Tokens, opts ...Option) Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	svc := &service{accounts: accounts, hasher: hasher, tokens: tokens, events: noopEvents{}, log: discard}
	for _, opt := range opts {
		opt(svc)
	}
	svc.dummyHash, _ = hasher.Hash("not-a-real-password-0")
	return svc
}

func (svc *service) Signup(ctx context.Context, r SignupRequest) Result {
	if errs := ValidateSignup(r); len(errs) > 0 {
		return invalid(errs.First(), errs)
	}

	p := Profile{
		Username: strings.TrimSpace(r.Username),
		Fullname: strings.TrimSpace(r.Fullname),
		Email:    NormalizeEmail(r.Email),
	}
	log := svc.log.WithFields(logrus.Fields{"op": "signup", "username": p.Username})

	field, err := svc.verifyNotInUse(ctx, p.Username, p.Email, "")
	if err != nil {
		log.WithError(err).Error("uniqueness check failed")
		return fail(ErrRepository, msgSignupFailed)
	}
	if field != "" {
		return conflict(field)
	}

	hash, err := svc.hasher.Hash(r.Password)
	if err != nil {
		log.WithError(err).Error("password hashing failed")
		return fail(err, msgSignupFailed)
	}

	acc, err := svc.accounts.Create(ctx, p, hash)
	if err != nil {
		if res, isDup := duplicateConflict(err); isDup {
			log.Info("signup lost a uniqueness race")
			return res
		}
		log.WithError(err).Error("error saving account")
		return fail(ErrRepository, msgSignupFailed)
	}
	svc.events.AccountCreated(acc.ID, acc.Username)

	token, session, err := svc.tokens.Issue(claimsFor(acc))
	if err != nil {
		log.WithError(err).Error("token issuance failed")
		return fail(err, msgSignupFailed)
	}
	return succeed(msgSignupOK, acc, token, session)
}

func (svc *service) Login(ctx context.Context, r LoginRequest) Result {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		svc.events.LoginFailed(r.Username)
		return fail(ErrAuthentication, msgBadLogin)
	}
	log := svc.log.WithFields(logrus.Fields{"op": "login", "username": r.Username})

	acc, err := svc.accounts.FindByName(ctx, r.Username)
	switch {
	case errors.Is(err, ErrNotFound):
		svc.hasher.Verify(r.Password, svc.dummyHash)
		svc.events.LoginFailed(r.Username)
		return fail(ErrAuthentication, msgBadLogin)
	case err != nil:
		log.WithError(err).Error("account lookup failed")
		return fail(ErrRepository, msgServerError)
	}

	if !svc.hasher.Verify(r.Password, acc.PasswordHash) {
		svc.events.LoginFailed(r.Username)
		return fail(ErrAuthentication, msgBadLogin)
	}

	token, session, err := svc.tokens.Issue(claimsFor(acc))
	if err != nil {
		log.WithError(err).Error("token issuance failed")
		return fail(err, msgServerError)
	}
	svc.events.LoginSucceeded(acc.ID)
	return succeed(msgLoginOK, acc, token, session)
}

func (svc *service) UpdateAccount(ctx context.Context, session Claims, r UpdateRequest) Result {
	if errs := ValidateUpdate(r); len(errs) > 0 {
		return invalid(msgValidation, errs)
	}

	var c ProfileChanges
	if r.Username != nil {
		u := strings.TrimSpace(*r.Username)
		c.Username = &u
	}
	if r.Fullname != nil {
		f := strings.TrimSpace(*r.Fullname)
		c.Fullname = &f
	}
	if r.Email != nil {
		e := NormalizeEmail(*r.Email)
		c.Email = &e
	}
	log := svc.log.WithFields(logrus.Fields{"op": "update", "account_id": session.ID})

	field, err := svc.verifyNotInUse(ctx, deref(c.Username), deref(c.Email), session.ID)
	if err != nil {
		log.WithError(err).Error("uniqueness check failed")
		return fail(ErrRepository, msgUpdateFailed)
	}
	if field != "" {
		return conflict(field)
	}

	acc, err := svc.accounts.UpdateByID(ctx, session.ID, c)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(ErrNotFound, msgUserNotFound)
		}
		if res, isDup := duplicateConflict(err); isDup {
			return res
		}
		log.WithError(err).Error("error updating account")
		return fail(ErrRepository, msgUpdateFailed)
	}
	svc.events.AccountUpdated(acc.ID)

	token, fresh, err := svc.tokens.Issue(claimsFor(acc))
	if err != nil {
		log.WithError(err).Error("token issuance failed")
		return fail(err, msgUpdateFailed)
	}
	return succeed(msgUpdateOK, acc, token, fresh)
}

func (svc *service) DeleteAccount(ctx context.Context, session Claims) Result {
	acc, err := svc.accounts.DeleteByID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(ErrNotFound, msgUserNotFound)
		}
		svc.log.WithFields(logrus.Fields{"op": "delete", "account_id": session.ID}).
			WithError(err).Error("error deleting account")
		return fail(ErrRepository, msgDeleteFailed)
	}
	svc.events.AccountDeleted(acc.ID)
	return Result{Success: true, Message: msgDeleteOK, User: viewOf(acc)}
}

// verifyNotInUse returns the first of username and email that is held by an
// account other than self. Empty arguments are skipped.
func (svc *service) verifyNotInUse(ctx context.Context, username, email string, self ID) (string, error) {
	if username != "" {
		acc, err := svc.accounts.FindByName(ctx, username)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if acc != nil && acc.ID != self {
			return fieldUsername, nil
		}
	}

	if email != "" {
		acc, err := svc.accounts.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if acc != nil && acc.ID != self {
			return fieldEmail, nil
		}
	}

	return "", nil
}

func duplicateConflict(err error) (Result, bool) {
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		return Result{}, false
	}
	if dup.Field != fieldEmail {
		return conflict(fieldUsername), true
	}
	return conflict(fieldEmail), true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
