package cmd

import (
	"database/sql"

	"github.com/vibast-solutions/ms-go-booking/app/mail"
	"github.com/vibast-solutions/ms-go-booking/app/repository"
	"github.com/vibast-solutions/ms-go-booking/app/service"
	"github.com/vibast-solutions/ms-go-booking/app/token"
	"github.com/vibast-solutions/ms-go-booking/config"

	_ "github.com/go-sql-driver/mysql"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := configureLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newAccountService(cfg *config.Config, db *sql.DB, opts ...service.AccountServiceOption) (service.AccountService, error) {
	mailer, err := mail.NewMailer(cfg.Mail)
	if err != nil {
		return nil, err
	}
	renderer, err := mail.NewRenderer(cfg.App)
	if err != nil {
		return nil, err
	}

	return service.NewAccountService(
		db,
		repository.NewAccountRepository(db),
		token.NewIssuer(cfg.JWT.Secret),
		service.NewBcryptHasher(cfg.Password.BcryptCost),
		service.NewPhoneValidator(cfg.Phone.DefaultRegion),
		mailer,
		renderer,
		cfg,
		opts...,
	), nil
}
