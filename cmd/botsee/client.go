package main

import (
	"fmt"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/config"
	"github.com/RivalSee/botsee-skill/internal/history"
)

// newAPIClient builds an authenticated client from the saved user config.
// It is a var so tests can swap it out.
var newAPIClient = func() (*api.Client, error) {
	cfg, err := config.RequireUser()
	if err != nil {
		return nil, err
	}
	return api.New(config.BaseURL(), cfg.APIKey, version), nil
}

// newAnonClient builds a client without credentials, for signup.
var newAnonClient = func() *api.Client {
	return api.New(config.BaseURL(), "", version)
}

// openHistory opens the local analysis ledger. The ledger is best-effort:
// failure to open it degrades to a warning, never a command failure.
func openHistory() *history.Store {
	path, err := history.DefaultPath()
	if err != nil {
		printWarning("history disabled: %v", err)
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		printWarning("history disabled: %v", err)
		return nil
	}
	return store
}

// requireSite returns the active site UUID from config, or an error
// directing the user to run setup first.
func requireSite() (*config.User, error) {
	cfg, err := config.RequireUser()
	if err != nil {
		return nil, err
	}
	if cfg.SiteUUID == "" {
		return nil, fmt.Errorf("no site configured. Run: botsee setup <domain>")
	}
	return cfg, nil
}
