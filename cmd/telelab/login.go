package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log into the practicum backend",
	Long: `Logs in with a student id and password (prompted when not given) and stores the credential
in the session store. With --credential, a practicum credential is exchanged instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, done, err := getClient(cmd)
		if err != nil {
			return err
		}
		defer done()
		ctx := cmd.Context()

		if credential, _ := cmd.Flags().GetString("credential"); credential != "" {
			creds, err := client.Authenticate(ctx, credential)
			if err != nil {
				return err
			}
			fmt.Printf("Authenticated (module %d)\n", creds.Module)
			return nil
		}

		reader := bufio.NewReader(os.Stdin)
		student, _ := cmd.Flags().GetString("student")
		if student == "" {
			fmt.Print("Student ID: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read student id: %w", err)
			}
			student = strings.TrimSpace(line)
		}
		password, err := readPassword(reader)
		if err != nil {
			return err
		}

		if _, err := client.Login(ctx, student, password); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", student)
		return nil
	},
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential and module",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, done, err := getClient(cmd)
		if err != nil {
			return err
		}
		defer done()
		if err := client.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringP("student", "u", "", "Student ID (prompted when empty)")
	loginCmd.Flags().String("credential", "", "Practicum credential to exchange instead of a password")
}
