package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igextract/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials",
	Long: `Manage stored Instagram cookie bundles.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your credentials or config files.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram credentials securely",
	Long: `Store an Instagram cookie bundle in the system keychain or an
encrypted file.

You will be prompted for:
  - Instagram username (if not provided)
  - Session ID (the sessionid cookie)
  - CSRF token (the csrftoken cookie)
  - User agent (optional)`,
	Example: `  # Interactive login
  igextract auth login

  # Login with username
  igextract auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored Instagram credentials.

If no username is provided, stored accounts are listed to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List stored Instagram accounts with their secrets masked.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide()

	fmt.Print("Ready to enter your cookies? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'igextract auth login' when you're ready.")
		return nil
	}

	fmt.Println()

	if username == "" {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("\nAccount %q already exists. Update credentials? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Println("\nEnter your cookie values (hidden as you type):")
	fmt.Println()

	var sessionValue string
	for {
		fmt.Print("sessionid cookie value: ")
		sessionValue, err = readPassword(reader)
		if err != nil {
			return fmt.Errorf("failed to read session ID: %w", err)
		}

		if len(sessionValue) < 20 || !strings.Contains(sessionValue, "%") {
			fmt.Println("\nThat doesn't look like a valid sessionid: it should be a")
			fmt.Println("long string containing % escapes, e.g. 12345678%3Aabcdef%3A26%3A...")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return fmt.Errorf("login aborted")
			}
			continue
		}
		break
	}

	var csrfValue string
	for {
		fmt.Print("\ncsrftoken cookie value: ")
		csrfValue, err = readPassword(reader)
		if err != nil {
			return fmt.Errorf("failed to read CSRF token: %w", err)
		}

		if len(csrfValue) < 20 || len(csrfValue) > 50 {
			fmt.Println("\nThat doesn't look like a valid csrftoken: it should be")
			fmt.Println("around 32 characters, e.g. YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return fmt.Errorf("login aborted")
			}
			continue
		}
		break
	}

	fmt.Print("\n\nUser agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Username:     username,
		SessionID:    sessionValue,
		CSRFToken:    csrfValue,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	fmt.Println("\nStoring credentials...")
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	sanitized := auth.SanitizeAccount(account)
	fmt.Printf("\nAccount saved: %s (sessionid %s)\n", username, sanitized.SessionID)
	if auth.IsKeyringAvailable() {
		fmt.Println("Stored in the system keychain, with an encrypted file backup.")
	} else {
		fmt.Println("Stored in an encrypted file.")
	}

	fmt.Println("\nNext:")
	fmt.Println("  igextract scrape <username>")
	fmt.Printf("  igextract scrape <username> --account %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		username := args[0]
		if err := manager.Delete(username); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		fmt.Println("Account removed:", username)
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		fmt.Println("No stored accounts found.")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	if len(accounts) == 1 {
		account := accounts[0]
		fmt.Printf("Remove account %q? (y/N): ", account.Username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
		if err := manager.Delete(account.Username); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		fmt.Println("Account removed:", account.Username)
		return nil
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Username)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')
	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? This cannot be undone. (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove all accounts: %w", err)
		}
		fmt.Println("All accounts removed.")
		return nil
	case choice > 0 && choice <= len(accounts):
		account := accounts[choice-1]
		if err := manager.Delete(account.Username); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		fmt.Println("Account removed:", account.Username)
		return nil
	default:
		return fmt.Errorf("invalid choice")
	}
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'igextract auth login' to add one.")
		return nil
	}

	fmt.Println("Stored accounts:")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Session ID: %s\n", sanitized.SessionID)
		fmt.Printf("   CSRF Token: %s\n", sanitized.CSRFToken)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}

// readPassword reads a secret from stdin without echoing when attached to
// a terminal.
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
