package cmd

import (
	"fmt"

	"github.com/pomyannik/pomyannik/auth"
	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/config"
	"github.com/pomyannik/pomyannik/db"
	"github.com/rs/zerolog/log"
)

const keyringService = "pomyannik"

// app holds everything a command needs. It is filled in by open before any
// subcommand runs.
type app struct {
	cfg     config.Config
	store   *auth.TokenStore
	session *auth.Service
	authAPI *client.AuthAPI
	api     *client.API
	folders db.FolderRepository

	// flag overrides
	apiURL  string
	timeout string

	destination auth.Destination
	opened      bool
}

// open loads the configuration and wires storage, transport and the session.
func (a *app) open() error {
	if a.opened {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := a.applyFlags(&cfg); err != nil {
		return err
	}
	a.cfg = cfg

	db.Path = cfg.DBPath
	if err := db.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.opened = true
	a.folders = db.NewFolderRepository(db.GetDB())

	storer, err := a.tokenStorer()
	if err != nil {
		return err
	}
	a.store = auth.NewTokenStore(storer)

	exec, err := client.NewExecutor(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	a.authAPI = client.NewAuthAPI(exec, cfg.ClientID, cfg.ClientSecret)
	a.session = auth.NewService(a.store, a.authAPI, auth.Options{
		RefreshPolicy: cfg.RefreshPolicy,
		Navigator:     a.navigate,
	})
	a.api = client.NewAPI(exec, a.session)

	log.Debug().Str("api_url", cfg.APIURL).Str("token_backend", cfg.TokenBackend).
		Str("refresh_policy", cfg.RefreshPolicy.String()).Msg("Client configured")
	return nil
}

func (a *app) applyFlags(cfg *config.Config) error {
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.timeout != "" {
		d, err := parseTimeout(a.timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	return cfg.Validate()
}

func (a *app) tokenStorer() (auth.TokenStorer, error) {
	if a.cfg.TokenBackend == config.BackendKeyring {
		ring, err := auth.OpenKeyring(keyringService, a.cfg.KeyringDir)
		if err != nil {
			return nil, err
		}
		return auth.NewKeyringStorer(ring), nil
	}
	return auth.NewRepoStorer(db.NewCredentialRepository(db.GetDB())), nil
}

// navigate records where the session wants the user to go next.
func (a *app) navigate(d auth.Destination) {
	a.destination = d
	log.Debug().Str("destination", string(d)).Msg("Navigation requested")
}

func (a *app) close() error {
	if !a.opened {
		return nil
	}
	a.opened = false
	return db.CloseDB()
}
