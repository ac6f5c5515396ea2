package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/auth"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API client credentials",
	}

	hash := &cobra.Command{
		Use:   "hash-secret",
		Short: "Hash a client secret for api.auth.clients[].secret_hash",
		Long:  "Hash a client secret with Argon2id. The secret is read from --secret or the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE:  runHashSecret,
	}
	hash.Flags().String("secret", "", "Secret to hash (default: read from stdin)")

	token := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a configured client",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	token.Flags().String("client", "", "Client name from api.auth.clients")
	_ = token.MarkFlagRequired("client") //nolint:errcheck // flag is defined above

	cmd.AddCommand(hash, token)
	return cmd
}

func runHashSecret(cmd *cobra.Command, _ []string) error {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading secret from stdin: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}
	if secret == "" {
		return errors.New("secret must not be empty")
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("hashing secret: %w", err)
	}

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		return out.printJSON(map[string]string{"secret_hash": hash})
	}
	out.printf("%s\n", hash)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.API.Auth.Enabled {
		return errors.New("api.auth is not enabled in the configuration")
	}

	a, err := auth.NewAuthenticator(cfg.API.Auth)
	if err != nil {
		return fmt.Errorf("building authenticator: %w", err)
	}

	name, _ := cmd.Flags().GetString("client")
	role, ok := a.ClientRole(name)
	if !ok {
		return fmt.Errorf("unknown client %q", name)
	}
	tok, err := a.Mint(name, role)
	if err != nil {
		return err
	}

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		return out.printJSON(map[string]any{
			"access_token": tok.AccessToken,
			"token_type":   tok.TokenType,
			"expires_in":   int(tok.ExpiresIn.Seconds()),
			"role":         tok.Role,
		})
	}
	out.printf("%s\n", tok.AccessToken)
	return nil
}
