package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Username:     "testuser",
		SessionID:    "test_session_id_12345",
		CSRFToken:    "test_csrf_token_67890",
		UserAgent:    "TestAgent/1.0",
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch: got %s, want %s", retrieved.SessionID, account.SessionID)
	}
	if retrieved.CSRFToken != account.CSRFToken {
		t.Errorf("CSRFToken mismatch: got %s, want %s", retrieved.CSRFToken, account.CSRFToken)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.SessionID == account.SessionID {
		t.Error("SessionID should be masked")
	}
	if sanitized.CSRFToken == account.CSRFToken {
		t.Error("CSRFToken should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	if _, err := manager.Retrieve("testuser"); err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("IGEXTRACT_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("IGEXTRACT_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username:  "encrypted_user",
		SessionID: "encrypted_session",
		CSRFToken: "encrypted_csrf",
	}

	if err := store.Store(account); err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch after encryption/decryption")
	}

	// The file on disk must not leak the plaintext values.
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_session")) {
		t.Error("File contains plaintext session ID")
	}
	if bytes.Contains(fileContent, []byte("encrypted_csrf")) {
		t.Error("File contains plaintext CSRF token")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("IGEXTRACT_SESSION_ID", "env_session")
	os.Setenv("IGEXTRACT_CSRF_TOKEN", "env_csrf")
	defer os.Unsetenv("IGEXTRACT_SESSION_ID")
	defer os.Unsetenv("IGEXTRACT_CSRF_TOKEN")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}

	if account.SessionID != "env_session" {
		t.Errorf("SessionID mismatch: got %s, want env_session", account.SessionID)
	}
	if account.CSRFToken != "env_csrf" {
		t.Errorf("CSRFToken mismatch: got %s, want env_csrf", account.CSRFToken)
	}

	if err := store.Store(&Account{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("IGEXTRACT_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("IGEXTRACT_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	account := &Account{
		Username:     "realuser",
		SessionID:    "real_session_id",
		CSRFToken:    "real_csrf_token",
		UserAgent:    "RealAgent/1.0",
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("realuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch: got %s, want %s", retrieved.SessionID, account.SessionID)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	account := &Account{
		Username:  "mockuser",
		SessionID: "mock_session",
		CSRFToken: "mock_csrf",
	}

	if err := store.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	if !store.Exists("mockuser") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
