package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/mail"
	"github.com/vibast-solutions/ms-go-booking/app/repository"
	"github.com/vibast-solutions/ms-go-booking/app/token"

	"github.com/sirupsen/logrus"
)

type Action string

const (
	ActionActivateAccount Action = "ACTIVATE_ACCOUNT"
	ActionUpdateEmail     Action = "UPDATE_EMAIL"
	ActionResetPassword   Action = "RESET_PASSWORD"
)

// verificationAction describes how a verification email is prepared for one action.
type verificationAction struct {
	subject        string
	template       string
	path           string
	requiresCaller bool
	// lock returns the account the token is issued for, locked for update,
	// or a codeError when a precondition fails.
	lock func(ctx context.Context, repo *repository.AccountRepository, caller *entity.Account, canonicalEmail string) (*entity.Account, error)
}

var verificationActions = map[Action]verificationAction{
	ActionActivateAccount: {
		subject:  "Complete your registration",
		template: mail.TemplateVerifyAccount,
		path:     "account/activate-account",
		lock:     lockInactiveByEmail,
	},
	ActionUpdateEmail: {
		subject:        "Confirm your new email address",
		template:       mail.TemplateUpdateEmail,
		path:           "account/update-email",
		requiresCaller: true,
		lock:           lockCallerForEmailChange,
	},
	ActionResetPassword: {
		subject:  "Reset your password",
		template: mail.TemplatePasswordReset,
		path:     "account/reset-password-confirm",
		lock:     lockActiveByEmail,
	},
}

func lockInactiveByEmail(ctx context.Context, repo *repository.AccountRepository, _ *entity.Account, canonicalEmail string) (*entity.Account, error) {
	account, err := repo.FindByCanonicalEmailForUpdate(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, codeError(CodeAccountDoesNotExist)
	}
	if account.IsActive {
		return nil, codeError(CodeAccountActive)
	}
	return account, nil
}

func lockActiveByEmail(ctx context.Context, repo *repository.AccountRepository, _ *entity.Account, canonicalEmail string) (*entity.Account, error) {
	account, err := repo.FindByCanonicalEmailForUpdate(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, codeError(CodeAccountDoesNotExist)
	}
	if !account.IsActive {
		return nil, codeError(CodeAccountInactive)
	}
	return account, nil
}

func lockCallerForEmailChange(ctx context.Context, repo *repository.AccountRepository, caller *entity.Account, newCanonicalEmail string) (*entity.Account, error) {
	account, err := repo.FindByIDForUpdate(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, codeError(CodeAccountDoesNotExist)
	}
	if !account.IsActive {
		return nil, codeError(CodeAccountInactive)
	}

	taken, err := repo.ExistsByCanonicalEmail(ctx, newCanonicalEmail)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, codeError(CodeEmailAlreadyRegistered)
	}
	return account, nil
}

// RequestVerificationEmail issues a fresh single-use token, replacing any
// outstanding one, and mails it. For UPDATE_EMAIL, email is the new address
// and the token is bound to the caller.
func (s *accountService) RequestVerificationEmail(ctx context.Context, caller *entity.Account, email, action string) dto.VerificationEmailResult {
	const op = "sendVerificationEmail"

	var errs fieldErrors
	if !errs.email(email) {
		return s.verificationResult(op, email, action, errs...)
	}

	spec, ok := verificationActions[Action(action)]
	if !ok {
		return s.verificationResult(op, email, action, CodeInvalidAction)
	}
	if spec.requiresCaller && caller == nil {
		return s.verificationResult(op, email, action, CodeUserNotLoggedIn)
	}

	recipient := strings.TrimSpace(email)
	canonical := CanonicalizeEmail(email)

	var account *entity.Account
	err := s.inTx(ctx, func(repo *repository.AccountRepository) error {
		var err error
		account, err = spec.lock(ctx, repo, caller, canonical)
		if err != nil {
			return err
		}

		newEmail := ""
		if Action(action) == ActionUpdateEmail {
			newEmail = canonical
		}
		signed, err := s.tokens.IssueVerification(account.ID, account.Email, action, newEmail, s.cfg.JWT.EmailTokenTTL)
		if err != nil {
			return err
		}

		account.LastToken = sql.NullString{String: signed, Valid: true}
		account.IsUsedLastToken = false
		if err = repo.Update(ctx, account); err != nil {
			return err
		}

		if err = s.sendVerification(ctx, spec, account, recipient, signed); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"account_id": account.ID,
				"action":     action,
			}).Error("Failed to send verification email")
			return codeError(CodeEmailNotSent)
		}
		return nil
	})
	if err != nil {
		return s.verificationResult(op, email, action, s.failure(err, CodeInternal, "Failed to issue verification token"))
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"action":     action,
	}).Info("Verification email sent")
	return s.verificationResult(op, email, action)
}

func (s *accountService) sendVerification(ctx context.Context, spec verificationAction, account *entity.Account, recipient, signed string) error {
	body, err := s.renderer.Render(spec.template, account.Name, spec.path, signed, s.cfg.JWT.EmailTokenTTL)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      recipient,
		Subject: s.renderer.SiteName() + " - " + spec.subject,
		Body:    body,
	})
}

func (s *accountService) ActivateAccount(ctx context.Context, tokenString string) dto.AccountResult {
	const op = "activateAccount"

	tokenString = strings.TrimSpace(tokenString)
	claims, code := s.verifyVerificationToken(tokenString, ActionActivateAccount)
	if code != "" {
		return s.accountResult(op, claimedEmail(claims), code)
	}

	account, code := s.consume(ctx, tokenString, claims,
		func(_ context.Context, _ *repository.AccountRepository, account *entity.Account) error {
			if account.IsActive {
				return codeError(CodeAccountActive)
			}
			return nil
		},
		func(account *entity.Account) {
			account.IsActive = true
		},
	)
	if code != "" {
		return s.accountResult(op, claims.Email, code)
	}

	logrus.WithField("account_id", account.ID).Info("Account activated")
	s.publish(ctx, account, KindActivated)
	return s.accountResult(op, account.Email)
}

func (s *accountService) UpdateEmail(ctx context.Context, tokenString string) dto.UpdateEmailResult {
	const op = "updateEmail"

	tokenString = strings.TrimSpace(tokenString)
	claims, code := s.verifyVerificationToken(tokenString, ActionUpdateEmail)
	if code == "" && claims.NewEmail == "" {
		code = CodeToken
	}
	if code == "" && !emailPattern.MatchString(claims.NewEmail) {
		code = CodeEmailRegex
	}
	if code != "" {
		return s.updateEmailResult(op, claims, code)
	}

	newCanonical := CanonicalizeEmail(claims.NewEmail)
	account, code := s.consume(ctx, tokenString, claims,
		func(ctx context.Context, repo *repository.AccountRepository, account *entity.Account) error {
			taken, err := repo.ExistsByCanonicalEmail(ctx, newCanonical)
			if err != nil {
				return err
			}
			if taken {
				return codeError(CodeEmailAlreadyRegistered)
			}
			if !account.IsActive {
				return codeError(CodeAccountInactive)
			}
			return nil
		},
		func(account *entity.Account) {
			account.Email = newCanonical
			account.CanonicalEmail = newCanonical
		},
	)
	if code != "" {
		return s.updateEmailResult(op, claims, code)
	}

	logrus.WithField("account_id", account.ID).Info("Account email updated")
	s.publish(ctx, account, KindEmailUpdated)
	return s.updateEmailResult(op, claims)
}

// ResetPassword reports every password field problem and the token problem
// together; the token itself is only consumed once the new password is acceptable.
func (s *accountService) ResetPassword(ctx context.Context, tokenString, password1, password2 string) dto.AccountResult {
	const op = "resetPassword"

	tokenString = strings.TrimSpace(tokenString)

	var errs fieldErrors
	errs.passwords(password1, password2, s.cfg.Password.Policy)
	claims, code := s.verifyVerificationToken(tokenString, ActionResetPassword)
	if code != "" {
		errs.add(code)
	}
	if !errs.empty() {
		return s.accountResult(op, claimedEmail(claims), errs...)
	}

	hash, err := s.hasher.Hash(password1)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return s.accountResult(op, claims.Email, CodeInternal)
	}

	account, code := s.consume(ctx, tokenString, claims,
		func(_ context.Context, _ *repository.AccountRepository, account *entity.Account) error {
			if !account.IsActive {
				return codeError(CodeAccountInactive)
			}
			return nil
		},
		func(account *entity.Account) {
			account.PasswordHash = hash
		},
	)
	if code != "" {
		return s.accountResult(op, claims.Email, code)
	}

	logrus.WithField("account_id", account.ID).Info("Password reset")
	s.publish(ctx, account, KindPasswordReset)
	return s.accountResult(op, account.Email)
}

// verifyVerificationToken runs the checks that need no database access.
func (s *accountService) verifyVerificationToken(tokenString string, action Action) (*token.Claims, string) {
	if tokenString == "" {
		return nil, CodeTokenRequired
	}

	claims, err := s.tokens.Verify(tokenString, string(action))
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, CodeExpiredToken
		}
		return nil, CodeToken
	}
	return claims, ""
}

// consume locks the token's account and, when the presented token is the
// account's outstanding one and guard passes, applies the change and marks
// the token used, all in one transaction.
func (s *accountService) consume(
	ctx context.Context,
	tokenString string,
	claims *token.Claims,
	guard func(ctx context.Context, repo *repository.AccountRepository, account *entity.Account) error,
	apply func(account *entity.Account),
) (*entity.Account, string) {
	id, err := claims.AccountID()
	if err != nil {
		return nil, CodeToken
	}

	var account *entity.Account
	err = s.inTx(ctx, func(repo *repository.AccountRepository) error {
		var err error
		account, err = repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if account == nil {
			return codeError(CodeAccountDoesNotExist)
		}
		if !account.LastToken.Valid || account.LastToken.String != tokenString {
			return codeError(CodeTokenNotMatch)
		}
		if account.IsUsedLastToken {
			return codeError(CodeTokenUsed)
		}
		if err = guard(ctx, repo, account); err != nil {
			return err
		}

		apply(account)
		account.IsUsedLastToken = true
		return repo.Update(ctx, account)
	})
	if err != nil {
		return nil, s.failure(err, CodeToken, "Failed to consume token")
	}
	return account, ""
}

func claimedEmail(claims *token.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.Email
}

func (s *accountService) verificationResult(op, email, action string, codes ...string) dto.VerificationEmailResult {
	return dto.VerificationEmailResult{Email: email, Action: action, Status: s.status(op, codes)}
}

func (s *accountService) updateEmailResult(op string, claims *token.Claims, codes ...string) dto.UpdateEmailResult {
	result := dto.UpdateEmailResult{Status: s.status(op, codes)}
	if claims != nil {
		result.OldEmail = claims.Email
		result.NewEmail = claims.NewEmail
	}
	return result
}
