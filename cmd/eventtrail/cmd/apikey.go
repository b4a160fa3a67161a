package cmd

import (
	"fmt"
	"sort"

	"github.com/solatis/eventtrail/internal/core/auth"
	"github.com/solatis/eventtrail/internal/core/config"
	"github.com/solatis/eventtrail/internal/core/db"
	"github.com/solatis/eventtrail/internal/types"
	"github.com/spf13/cobra"
)

var apiKeyCmd = &cobra.Command{
	Use:   "api-key",
	Short: "Manage match API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an API key for a tenant",
	Long: `Mint an API key for a tenant, signed with a configured HMAC secret.

The key is printed once; only its HMAC is stored.`,
	Args: cobra.NoArgs,
	RunE: runAPIKeyCreate,
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

var (
	apiKeyTenant   string
	apiKeyName     string
	apiKeySecretID string
)

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd)

	apiKeyCreateCmd.Flags().StringVar(&apiKeyTenant, "tenant", "", "tenant the key authenticates as")
	apiKeyCreateCmd.Flags().StringVar(&apiKeyName, "name", "default", "human-readable key name")
	apiKeyCreateCmd.Flags().StringVar(&apiKeySecretID, "secret-id", "", "HMAC secret to sign with (required when several are configured)")
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	if apiKeyTenant == "" {
		return fmt.Errorf("--tenant required")
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, err := selectSecret(secrets, apiKeySecretID)
	if err != nil {
		return err
	}

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	apiKey, keyHash, err := auth.GenerateAPIKey(secretID, secrets[secretID])
	if err != nil {
		return err
	}
	id, err := db.NewAPIKeyStore(queries).Insert(cmd.Context(), types.TenantID(apiKeyTenant), apiKeyName, secretID, keyHash)
	if err != nil {
		return err
	}

	logger.Info("created API key", "api_key_id", id, "tenant_id", apiKeyTenant, "secret_id", secretID)
	fmt.Fprintln(cmd.OutOrStdout(), apiKey)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewAPIKeyStore(queries).Revoke(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Info("revoked API key", "api_key_id", args[0])
	return nil
}

// selectSecret picks the signing secret: the requested one, or the only
// one configured.
func selectSecret(secrets map[string][]byte, requested string) (string, error) {
	if requested != "" {
		if _, ok := secrets[requested]; !ok {
			return "", fmt.Errorf("secret %s not configured", requested)
		}
		return requested, nil
	}

	switch len(secrets) {
	case 0:
		return "", fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	case 1:
		for id := range secrets {
			return id, nil
		}
	}

	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "", fmt.Errorf("%d HMAC secrets configured, choose one with --secret-id (%v)", len(ids), ids)
}
