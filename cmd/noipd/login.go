package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jpalmerr/noipupdater/config"
)

// loginCmd stores the account credentials in the config file.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store No-IP credentials in the config file",
	Long: `Prompt for the No-IP username and password and save them in the config
file. The password is read without echo when stdin is a terminal. The file
is written with mode 0600.

Example:
  noipd login -c noipd.yaml`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
	username, err := readLine(in)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd.InOrStdin(), in, cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}

	path := configPath(cmd)
	if _, err := config.SetCredentials(path, username, password); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Credentials for %s saved to %s\n", username, path)
	return nil
}

// promptPassword asks for a password on prompt.
func promptPassword(in io.Reader, prompt io.Writer, label string) (string, error) {
	return readPassword(in, bufio.NewReader(in), prompt, label)
}

// readPassword reads a password without echo when raw is a terminal and
// falls back to a plain line from buffered otherwise.
func readPassword(raw io.Reader, buffered *bufio.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)

	if f, ok := raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}
	return readLine(buffered)
}

// readLine reads one line and trims the line ending and surrounding space.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
