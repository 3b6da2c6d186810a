// Package config owns the two local state files the CLI keeps: the
// user-scoped credential file and the workspace-scoped settings file,
// plus the pending-signup marker used to resume an unfinished signup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// User is the credential/config record at ~/.botsee/config.json.
type User struct {
	APIKey       string `json:"api_key"`
	SiteUUID     string `json:"site_uuid,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
}

// Workspace is the per-project settings record at
// .context/botsee-config.json, written once by setup.
type Workspace struct {
	Domain              string `json:"domain"`
	Types               int    `json:"types"`
	PersonasPerType     int    `json:"personas_per_type"`
	QuestionsPerPersona int    `json:"questions_per_persona"`
}

// PendingSignup marks a signup token created but not yet completed.
type PendingSignup struct {
	SetupToken string `json:"setup_token"`
	SetupURL   string `json:"setup_url"`
	StatusURL  string `json:"status_url,omitempty"`
}

// BaseURL returns the API base URL, honoring the BOTSEE_BASE_URL
// environment override. An empty return means "use the client default".
func BaseURL() string {
	return os.Getenv("BOTSEE_BASE_URL")
}

func userDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".botsee"), nil
}

// UserConfigPath is ~/.botsee/config.json.
func UserConfigPath() (string, error) {
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PendingSignupPath is ~/.botsee/pending_signup.json.
func PendingSignupPath() (string, error) {
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pending_signup.json"), nil
}

// WorkspaceConfigPath is .context/botsee-config.json, relative to the
// working directory.
func WorkspaceConfigPath() string {
	return filepath.Join(".context", "botsee-config.json")
}

// LoadUser reads the user config. A missing file returns (nil, nil) so
// callers can distinguish "not set up yet" from real errors.
func LoadUser() (*User, error) {
	path, err := UserConfigPath()
	if err != nil {
		return nil, err
	}
	return loadUserFrom(path)
}

func loadUserFrom(path string) (*User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading user config: %w", err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parsing user config %s: %w", path, err)
	}
	return &u, nil
}

// SaveUser writes the user config as a full rewrite with owner-only
// permissions. Contact fields left empty in u are preserved from the
// existing file; an unreadable existing file is treated as empty.
func SaveUser(u User) error {
	path, err := UserConfigPath()
	if err != nil {
		return err
	}
	return saveUserTo(path, u)
}

func saveUserTo(path string, u User) error {
	if prev, err := loadUserFrom(path); err == nil && prev != nil {
		if u.ContactEmail == "" {
			u.ContactEmail = prev.ContactEmail
		}
		if u.CompanyName == "" {
			u.CompanyName = prev.CompanyName
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] could not read existing config %s: %v. Overwriting.\n", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// RequireUser loads the user config and fails when none exists.
func RequireUser() (*User, error) {
	u, err := LoadUser()
	if err != nil {
		return nil, err
	}
	if u == nil || u.APIKey == "" {
		return nil, fmt.Errorf("no BotSee config found. Run: botsee signup")
	}
	return u, nil
}

// LoadWorkspace reads the workspace config; a missing file returns
// (nil, nil).
func LoadWorkspace() (*Workspace, error) {
	return loadWorkspaceFrom(WorkspaceConfigPath())
}

func loadWorkspaceFrom(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace config: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workspace config %s: %w", path, err)
	}
	return &w, nil
}

// SaveWorkspace writes the workspace config as a full rewrite.
func SaveWorkspace(w Workspace) error {
	return saveWorkspaceTo(WorkspaceConfigPath(), w)
}

func saveWorkspaceTo(path string, w Workspace) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating workspace config dir: %w", err)
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadPendingSignup reads the pending-signup marker; missing file returns
// (nil, nil).
func LoadPendingSignup() (*PendingSignup, error) {
	path, err := PendingSignupPath()
	if err != nil {
		return nil, err
	}
	return loadPendingFrom(path)
}

func loadPendingFrom(path string) (*PendingSignup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending signup: %w", err)
	}
	var p PendingSignup
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pending signup %s: %w", path, err)
	}
	return &p, nil
}

// SavePendingSignup persists the marker with owner-only permissions.
func SavePendingSignup(p PendingSignup) error {
	path, err := PendingSignupPath()
	if err != nil {
		return err
	}
	return savePendingTo(path, p)
}

func savePendingTo(path string, p PendingSignup) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// RemovePendingSignup deletes the marker; a missing file is not an error.
func RemovePendingSignup() error {
	path, err := PendingSignupPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
