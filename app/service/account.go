package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/events"
	"github.com/vibast-solutions/ms-go-booking/app/mail"
	"github.com/vibast-solutions/ms-go-booking/app/repository"
	"github.com/vibast-solutions/ms-go-booking/app/token"
	"github.com/vibast-solutions/ms-go-booking/config"

	"github.com/sirupsen/logrus"
)

// Kinds carried by AccountStateChanged.
const (
	KindCreated         = "created"
	KindEdited          = "edited"
	KindActivated       = "activated"
	KindDeactivated     = "deactivated"
	KindEmailUpdated    = "email_updated"
	KindPasswordReset   = "password_reset"
	KindPasswordChanged = "password_changed"
)

type AccountStateChanged struct {
	AccountID uint64 `json:"account_id"`
	Email     string `json:"email"`
	Kind      string `json:"kind"`
}

type accountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uint64) (*entity.Account, error)
	FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.Account, error)
	ExistsByCanonicalEmail(ctx context.Context, canonicalEmail string) (bool, error)
	List(ctx context.Context) ([]*entity.Account, error)
}

type tokenIssuer interface {
	IssueVerification(accountID uint64, email, action, newEmail string, ttl time.Duration) (string, error)
	IssueAccess(accountID uint64, email string, ttl time.Duration) (string, error)
	Verify(tokenString, action string) (*token.Claims, error)
	VerifyAccess(tokenString string) (*token.Claims, error)
}

type mailRenderer interface {
	Render(name, recipientName, path, token string, ttl time.Duration) (string, error)
	SiteName() string
}

// MutationObserver is notified once per finished mutation.
type MutationObserver interface {
	ObserveMutation(operation, result string)
}

// AccountService owns the account lifecycle. caller is the authenticated
// account of the request, nil for anonymous requests.
type AccountService interface {
	CreateAccount(ctx context.Context, input dto.CreateAccountInput) dto.AccountResult
	EditAccount(ctx context.Context, caller *entity.Account, input dto.EditAccountInput) dto.AccountResult
	DeactivateAccount(ctx context.Context, caller *entity.Account) dto.AccountResult
	ChangePassword(ctx context.Context, caller *entity.Account, password1, password2 string) dto.AccountResult
	RequestVerificationEmail(ctx context.Context, caller *entity.Account, email, action string) dto.VerificationEmailResult
	ActivateAccount(ctx context.Context, tokenString string) dto.AccountResult
	UpdateEmail(ctx context.Context, tokenString string) dto.UpdateEmailResult
	ResetPassword(ctx context.Context, tokenString, password1, password2 string) dto.AccountResult
	TokenAuth(ctx context.Context, email, password string) dto.TokenAuthResult
	VerifyToken(ctx context.Context, tokenString string) dto.AccountResult
	Authenticate(ctx context.Context, tokenString string) (*entity.Account, error)
	Me(ctx context.Context, caller *entity.Account) (*entity.Account, error)
	Users(ctx context.Context) ([]*entity.Account, error)
	CreateStaffAccount(ctx context.Context, email, password string) (*entity.Account, error)
}

type AccountServiceOption func(*accountService)

type accountService struct {
	db        *sql.DB
	accounts  accountRepository
	tokens    tokenIssuer
	hasher    PasswordHasher
	phones    PhoneValidator
	mailer    mail.Mailer
	renderer  mailRenderer
	cfg       *config.Config
	publisher events.Publisher
	observer  MutationObserver
	now       func() time.Time
}

func NewAccountService(
	db *sql.DB,
	accounts accountRepository,
	tokens tokenIssuer,
	hasher PasswordHasher,
	phones PhoneValidator,
	mailer mail.Mailer,
	renderer mailRenderer,
	cfg *config.Config,
	opts ...AccountServiceOption,
) AccountService {
	svc := &accountService{
		db:       db,
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		phones:   phones,
		mailer:   mailer,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithPublisher(publisher events.Publisher) AccountServiceOption {
	return func(s *accountService) {
		s.publisher = publisher
	}
}

func WithMutationObserver(observer MutationObserver) AccountServiceOption {
	return func(s *accountService) {
		s.observer = observer
	}
}

func WithClock(now func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *accountService) CreateAccount(ctx context.Context, input dto.CreateAccountInput) dto.AccountResult {
	const op = "createAccount"

	var errs fieldErrors
	canonical := CanonicalizeEmail(input.Email)
	if errs.email(input.Email) {
		exists, err := s.accounts.ExistsByCanonicalEmail(ctx, canonical)
		if err != nil {
			logrus.WithError(err).WithField("email", canonical).Error("Failed to check email availability")
			return s.accountResult(op, input.Email, CodeInternal)
		}
		if exists {
			errs.add(CodeEmailAlreadyRegistered)
		}
	}
	errs.passwords(input.Password1, input.Password2, s.cfg.Password.Policy)
	errs.text(input.Name, CodeNameRequired)
	errs.text(input.Surnames, CodeSurnamesRequired)
	errs.phone(input.PhoneNumber, s.phones)
	if !errs.empty() {
		return s.accountResult(op, input.Email, errs...)
	}

	hash, err := s.hasher.Hash(input.Password1)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return s.accountResult(op, input.Email, CodeInternal)
	}

	now := s.now()
	account := &entity.Account{
		Email:          strings.TrimSpace(input.Email),
		CanonicalEmail: canonical,
		PasswordHash:   hash,
		Name:           strings.TrimSpace(input.Name),
		Surnames:       strings.TrimSpace(input.Surnames),
		PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
		IsActive:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return s.accountResult(op, input.Email, CodeEmailAlreadyRegistered)
		}
		logrus.WithError(err).WithField("email", canonical).Error("Failed to create account")
		return s.accountResult(op, input.Email, CodeInternal)
	}

	logrus.WithField("account_id", account.ID).Info("Account created")
	s.publish(ctx, account, KindCreated)
	return s.accountResult(op, input.Email)
}

func (s *accountService) EditAccount(ctx context.Context, caller *entity.Account, input dto.EditAccountInput) dto.AccountResult {
	const op = "editAccount"

	var errs fieldErrors
	errs.email(input.Email)
	errs.text(input.Name, CodeNameRequired)
	errs.text(input.Surnames, CodeSurnamesRequired)
	errs.phone(input.PhoneNumber, s.phones)

	canonical := CanonicalizeEmail(input.Email)
	owner := false
	switch {
	case caller == nil:
		errs.add(CodeUserNotLoggedIn)
	case !caller.IsActive:
		errs.add(CodeAccountInactive)
	case caller.CanonicalEmail == canonical:
		owner = true
	case caller.IsStaff:
	default:
		errs.add(CodeOperationNotAllowed)
	}
	if !errs.empty() {
		return s.accountResult(op, input.Email, errs...)
	}

	var edited *entity.Account
	err := s.inTx(ctx, func(repo *repository.AccountRepository) error {
		var err error
		if owner {
			edited, err = repo.FindByIDForUpdate(ctx, caller.ID)
		} else {
			edited, err = repo.FindByCanonicalEmailForUpdate(ctx, canonical)
		}
		if err != nil {
			return err
		}
		if edited == nil {
			return codeError(CodeAccountDoesNotExist)
		}

		edited.Name = strings.TrimSpace(input.Name)
		edited.Surnames = strings.TrimSpace(input.Surnames)
		edited.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
		if caller.IsStaff {
			if input.IsVip != nil {
				edited.IsVip = *input.IsVip
			}
			if input.IsActive != nil {
				if edited.IsActive && !*input.IsActive {
					edited.IsUsedLastToken = true
				}
				edited.IsActive = *input.IsActive
			}
			if input.IsStaff != nil {
				edited.IsStaff = *input.IsStaff
			}
		}
		return repo.Update(ctx, edited)
	})
	if err != nil {
		return s.accountResult(op, input.Email, s.failure(err, CodeInternal, "Failed to edit account"))
	}

	logrus.WithFields(logrus.Fields{
		"account_id": edited.ID,
		"editor_id":  caller.ID,
	}).Info("Account edited")
	s.publish(ctx, edited, KindEdited)
	return s.accountResult(op, input.Email)
}

func (s *accountService) DeactivateAccount(ctx context.Context, caller *entity.Account) dto.AccountResult {
	const op = "deactivateAccount"

	if caller == nil {
		return s.accountResult(op, "", CodeUserNotLoggedIn)
	}
	if !caller.IsActive {
		return s.accountResult(op, caller.Email, CodeAccountInactive)
	}

	var account *entity.Account
	err := s.inTx(ctx, func(repo *repository.AccountRepository) error {
		var err error
		account, err = repo.FindByIDForUpdate(ctx, caller.ID)
		if err != nil {
			return err
		}
		if account == nil {
			return codeError(CodeAccountDoesNotExist)
		}
		if !account.IsActive {
			return codeError(CodeAccountInactive)
		}

		account.IsActive = false
		account.IsUsedLastToken = true
		return repo.Update(ctx, account)
	})
	if err != nil {
		return s.accountResult(op, caller.Email, s.failure(err, CodeInternal, "Failed to deactivate account"))
	}

	logrus.WithField("account_id", account.ID).Info("Account deactivated")
	s.publish(ctx, account, KindDeactivated)
	return s.accountResult(op, account.Email)
}

func (s *accountService) ChangePassword(ctx context.Context, caller *entity.Account, password1, password2 string) dto.AccountResult {
	const op = "changePassword"

	var errs fieldErrors
	switch {
	case caller == nil:
		errs.add(CodeUserNotLoggedIn)
	case !caller.IsActive:
		errs.add(CodeAccountInactive)
	}
	errs.passwords(password1, password2, s.cfg.Password.Policy)
	if !errs.empty() {
		email := ""
		if caller != nil {
			email = caller.Email
		}
		return s.accountResult(op, email, errs...)
	}

	hash, err := s.hasher.Hash(password1)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return s.accountResult(op, caller.Email, CodeInternal)
	}

	var account *entity.Account
	err = s.inTx(ctx, func(repo *repository.AccountRepository) error {
		var err error
		account, err = repo.FindByIDForUpdate(ctx, caller.ID)
		if err != nil {
			return err
		}
		if account == nil {
			return codeError(CodeAccountDoesNotExist)
		}

		account.PasswordHash = hash
		return repo.Update(ctx, account)
	})
	if err != nil {
		return s.accountResult(op, caller.Email, s.failure(err, CodeInternal, "Failed to change password"))
	}

	logrus.WithField("account_id", account.ID).Info("Password changed")
	s.publish(ctx, account, KindPasswordChanged)
	return s.accountResult(op, account.Email)
}

func (s *accountService) TokenAuth(ctx context.Context, email, password string) dto.TokenAuthResult {
	const op = "tokenAuth"

	account, err := s.accounts.FindByCanonicalEmail(ctx, CanonicalizeEmail(email))
	if err != nil {
		logrus.WithError(err).Error("Failed to load account for token auth")
		return s.tokenAuthResult(op, "", CodeInternal)
	}
	if account == nil || !s.hasher.Compare(account.PasswordHash, password) {
		return s.tokenAuthResult(op, "", CodeInvalidCredentials)
	}
	if !account.IsActive {
		return s.tokenAuthResult(op, "", CodeAccountInactive)
	}

	signed, err := s.tokens.IssueAccess(account.ID, account.Email, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logrus.WithError(err).WithField("account_id", account.ID).Error("Failed to issue access token")
		return s.tokenAuthResult(op, "", CodeInternal)
	}

	return s.tokenAuthResult(op, signed)
}

func (s *accountService) VerifyToken(ctx context.Context, tokenString string) dto.AccountResult {
	const op = "verifyToken"

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return s.accountResult(op, "", CodeTokenRequired)
	}

	account, err := s.Authenticate(ctx, tokenString)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return s.accountResult(op, "", CodeExpiredToken)
		case errors.Is(err, token.ErrInvalid):
			return s.accountResult(op, "", CodeToken)
		case errors.Is(err, ErrAccountNotFound):
			return s.accountResult(op, "", CodeAccountDoesNotExist)
		default:
			logrus.WithError(err).Error("Failed to verify access token")
			return s.accountResult(op, "", CodeInternal)
		}
	}

	return s.accountResult(op, account.Email)
}

// Authenticate resolves a bearer access token to its account.
func (s *accountService) Authenticate(ctx context.Context, tokenString string) (*entity.Account, error) {
	claims, err := s.tokens.VerifyAccess(tokenString)
	if err != nil {
		return nil, err
	}
	id, err := claims.AccountID()
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *accountService) Me(_ context.Context, caller *entity.Account) (*entity.Account, error) {
	if caller == nil {
		return nil, ErrUserNotLoggedIn
	}
	return caller, nil
}

func (s *accountService) Users(ctx context.Context) ([]*entity.Account, error) {
	return s.accounts.List(ctx)
}

// CreateStaffAccount creates an already active staff account. It backs the
// administrative CLI and does not send any email.
func (s *accountService) CreateStaffAccount(ctx context.Context, email, password string) (*entity.Account, error) {
	var errs fieldErrors
	errs.email(email)
	errs.passwords(password, password, s.cfg.Password.Policy)
	if !errs.empty() {
		return nil, codeError(errs[0])
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &entity.Account{
		Email:          strings.TrimSpace(email),
		CanonicalEmail: CanonicalizeEmail(email),
		PasswordHash:   hash,
		IsActive:       true,
		IsStaff:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, codeError(CodeEmailAlreadyRegistered)
		}
		return nil, err
	}

	logrus.WithField("account_id", account.ID).Info("Staff account created")
	s.publish(ctx, account, KindCreated)
	return account, nil
}

func (s *accountService) inTx(ctx context.Context, fn func(repo *repository.AccountRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = fn(repository.NewAccountRepository(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// failure maps err to a domain code, logging it when it is an infrastructure error.
func (s *accountService) failure(err error, fallback, message string) string {
	var ce codeError
	if errors.As(err, &ce) {
		return string(ce)
	}
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return CodeEmailAlreadyRegistered
	}
	logrus.WithError(err).Error(message)
	return fallback
}

func (s *accountService) publish(ctx context.Context, account *entity.Account, kind string) {
	if s.publisher == nil {
		return
	}

	event := AccountStateChanged{AccountID: account.ID, Email: account.Email, Kind: kind}
	if err := s.publisher.Publish(ctx, events.TopicAccountState, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"account_id": account.ID,
			"kind":       kind,
		}).Warn("Failed to publish account event")
	}
}

func (s *accountService) status(op string, codes []string) dto.Status {
	st := dto.Status{Result: ResultOK, Errors: []string{}}
	if len(codes) > 0 {
		st = dto.Status{Result: ResultKO, Errors: codes}
	}
	if s.observer != nil {
		s.observer.ObserveMutation(op, st.Result)
	}
	return st
}

func (s *accountService) accountResult(op, email string, codes ...string) dto.AccountResult {
	return dto.AccountResult{Email: email, Status: s.status(op, codes)}
}

func (s *accountService) tokenAuthResult(op, signed string, codes ...string) dto.TokenAuthResult {
	return dto.TokenAuthResult{Token: signed, Status: s.status(op, codes)}
}
