// ABOUTME: API token storage and resolution for the auth client
// ABOUTME: Token comes from the environment, the XDG token file, or a terminal prompt
package auth

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// ErrNoToken means no token was configured and none could be prompted for.
var ErrNoToken = errors.New("no API token configured")

// TokenPath returns the XDG-compliant path of the saved API token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "dealdesk", "api-token.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &token, nil
}

// DeleteToken removes the saved token. A missing file is not an error.
func DeleteToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// ResolveToken picks the first of envToken, the token saved at path, or a
// prompt on in/out. Prompting only happens when in is a terminal.
func ResolveToken(envToken, path string, in *os.File, out io.Writer) (string, error) {
	if envToken != "" {
		return envToken, nil
	}
	if tok, err := LoadToken(path); err == nil {
		return tok.AccessToken, nil
	}
	if in == nil || !term.IsTerminal(int(in.Fd())) {
		return "", ErrNoToken
	}
	return PromptToken(in, out)
}

// PromptToken reads a token from the terminal without echoing it.
func PromptToken(in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "API token: ")

	var (
		raw []byte
		err error
	)
	if term.IsTerminal(int(in.Fd())) {
		raw, err = term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
	} else {
		var line string
		line, err = bufio.NewReader(in).ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		raw = []byte(line)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
