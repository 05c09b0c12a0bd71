package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
)

const selectAccountQuery = `
		SELECT id, email, canonical_email, password_hash, name, surnames, phone_number,
		       is_active, is_staff, is_vip, last_token, is_used_last_token, created_at, updated_at
		FROM accounts`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (email, canonical_email, password_hash, name, surnames, phone_number,
		                      is_active, is_staff, is_vip, last_token, is_used_last_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.CanonicalEmail,
		account.PasswordHash,
		account.Name,
		account.Surnames,
		account.PhoneNumber,
		account.IsActive,
		account.IsStaff,
		account.IsVip,
		account.LastToken,
		account.IsUsedLastToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = uint64(id)
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uint64) (*entity.Account, error) {
	return r.findOne(ctx, selectAccountQuery+` WHERE id = ?`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *AccountRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*entity.Account, error) {
	return r.findOne(ctx, selectAccountQuery+` WHERE id = ? FOR UPDATE`, id)
}

func (r *AccountRepository) FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.Account, error) {
	return r.findOne(ctx, selectAccountQuery+` WHERE canonical_email = ?`, canonicalEmail)
}

func (r *AccountRepository) FindByCanonicalEmailForUpdate(ctx context.Context, canonicalEmail string) (*entity.Account, error) {
	return r.findOne(ctx, selectAccountQuery+` WHERE canonical_email = ? FOR UPDATE`, canonicalEmail)
}

func (r *AccountRepository) ExistsByCanonicalEmail(ctx context.Context, canonicalEmail string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE canonical_email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, canonicalEmail).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectAccountQuery+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*entity.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	query := `
		UPDATE accounts SET
			email = ?,
			canonical_email = ?,
			password_hash = ?,
			name = ?,
			surnames = ?,
			phone_number = ?,
			is_active = ?,
			is_staff = ?,
			is_vip = ?,
			last_token = ?,
			is_used_last_token = ?,
			updated_at = ?
		WHERE id = ?
	`
	account.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.CanonicalEmail,
		account.PasswordHash,
		account.Name,
		account.Surnames,
		account.PhoneNumber,
		account.IsActive,
		account.IsStaff,
		account.IsVip,
		account.LastToken,
		account.IsUsedLastToken,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil && isDuplicateEntry(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Account, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	account, err := scanAccount(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return account, nil
}

func scanAccount(scan rowScanner) (*entity.Account, error) {
	account := &entity.Account{}
	if err := scan(
		&account.ID,
		&account.Email,
		&account.CanonicalEmail,
		&account.PasswordHash,
		&account.Name,
		&account.Surnames,
		&account.PhoneNumber,
		&account.IsActive,
		&account.IsStaff,
		&account.IsVip,
		&account.LastToken,
		&account.IsUsedLastToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return account, nil
}
