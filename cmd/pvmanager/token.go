package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Chihaouimed/PV/internal/middleware"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenName  string
	tokenEmail string
	tokenTTL   time.Duration
)

// tokenCmd signs an operator token with the configured secret
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for an operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUser == "" {
			return errors.New("--user is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWT.Secret == "" {
			return errors.New("jwt.secret is not configured")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWT.AccessTokenExpire
		}
		token, err := middleware.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, tokenUser, tokenName, tokenEmail, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "operator id (token subject)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "operator display name")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "operator e-mail")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: jwt.access_token_expire)")
}
