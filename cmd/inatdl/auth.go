package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"inatdl/pkg/auth"
)

// authCmd groups the session cookie storage subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored iNaturalist session cookies",
	Long: `Store, inspect, and remove the _inaturalist_session cookie used to
access photo pages. Cookies are kept in the system keyring when one is
available, otherwise in an encrypted file under the user config directory.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a session cookie for a username",
	Args:  cobra.MaximumNArgs(1),
	Run:   runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove the stored session cookie for a username",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status <username>",
	Short: "Show whether a session cookie is stored for a username",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	} else {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		fmt.Fprintln(os.Stderr, "Error: username is required")
		os.Exit(1)
	}

	fmt.Print("Session cookie: ")
	var cookieValue string
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cookieValue = strings.TrimSpace(string(secret))
	} else {
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cookieValue = strings.TrimSpace(line)
	}
	if cookieValue == "" {
		fmt.Fprintln(os.Stderr, "Error: session cookie is required")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	account := &auth.Account{
		Username:      username,
		SessionCookie: cookieValue,
	}
	if err := manager.Store(account); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to store cookie: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Stored session cookie for %s (%s)\n", username, auth.MaskCookie(cookieValue))
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Delete(username); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to remove cookie: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Removed stored session cookie for %s\n", username)
}

func runAuthStatus(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !manager.Exists(username) {
		fmt.Printf("No session cookie stored for %s\n", username)
		return
	}

	account, err := manager.Retrieve(username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read stored cookie: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session cookie stored for %s: %s\n", username, auth.MaskCookie(account.SessionCookie))
	if !account.LastModified.IsZero() {
		fmt.Printf("Last updated: %s\n", account.LastModified.Format("2006-01-02 15:04:05"))
	}
}
