package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/cli/output"
	"github.com/quarryhq/quarry/internal/cli/prompt"
	"github.com/quarryhq/quarry/pkg/auth"
	"github.com/quarryhq/quarry/pkg/web"
)

var (
	tokenManager bool
	tokenRoutes  []string
	tokenForce   bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens (add, list, remove)",
}

var tokenAddCmd = &cobra.Command{
	Use:   "add <alias>",
	Short: "Create a new access token",
	Long: `Create a new access token. The generated secret is printed once and
cannot be recovered afterwards.

Routes scope the token to path prefixes with a permission, written as
PATH:PERMISSION where permission is read or write.

Examples:
  # Read-only token for the releases repository
  quarry token add ci --route /releases:read

  # Deploy token for two repositories
  quarry token add deployer --route /releases:write --route /snapshots:write

  # Manager token with full access
  quarry token add ops --manager`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenAdd,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access tokens",
	RunE:  runTokenList,
}

var tokenRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Delete an access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenRemove,
}

func init() {
	registerClientFlags(tokenCmd)

	tokenAddCmd.Flags().BoolVar(&tokenManager, "manager", false, "Grant management API access and write access everywhere")
	tokenAddCmd.Flags().StringArrayVar(&tokenRoutes, "route", nil, "Route as PATH:PERMISSION, repeatable")
	tokenRemoveCmd.Flags().BoolVar(&tokenForce, "force", false, "Skip the confirmation prompt")

	tokenCmd.AddCommand(tokenAddCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRemoveCmd)
}

func runTokenAdd(cmd *cobra.Command, args []string) error {
	routes, err := parseRoutes(tokenRoutes)
	if err != nil {
		return err
	}
	if !tokenManager && len(routes) == 0 {
		return fmt.Errorf("a token needs --manager or at least one --route")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	created, err := client.CreateToken(cmd.Context(), web.CreateTokenRequest{
		Alias:   args[0],
		Manager: tokenManager,
		Routes:  routes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Token %q created.\n\n", created.Token.Alias)
	fmt.Printf("  Secret: %s\n\n", created.Secret)
	fmt.Println("Store the secret now; it is shown only once.")
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	tokens, err := client.ListTokens(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(tokens))
	for _, t := range tokens {
		access := formatRoutes(t.Routes)
		if t.Manager {
			access = "manager"
		}
		rows = append(rows, []string{t.Alias, access, t.CreatedAt.Format("2006-01-02 15:04")})
	}

	fmt.Println()
	output.PrintTable(os.Stdout, []string{"Alias", "Access", "Created"}, rows)
	fmt.Println()
	return nil
}

func runTokenRemove(cmd *cobra.Command, args []string) error {
	alias := args[0]

	if !tokenForce {
		ok, err := prompt.Confirm(fmt.Sprintf("Delete token %q", alias))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	if err := client.DeleteToken(cmd.Context(), alias); err != nil {
		return err
	}

	fmt.Printf("Token %q deleted.\n", alias)
	return nil
}

// parseRoutes converts PATH:PERMISSION flags into routes.
func parseRoutes(raw []string) ([]auth.Route, error) {
	routes := make([]auth.Route, 0, len(raw))
	for _, r := range raw {
		path, perm, found := strings.Cut(r, ":")
		if !found || path == "" {
			return nil, fmt.Errorf("invalid route %q (expected PATH:PERMISSION)", r)
		}

		permission := auth.Permission(strings.ToLower(perm))
		if permission != auth.PermissionRead && permission != auth.PermissionWrite {
			return nil, fmt.Errorf("invalid permission %q (expected read or write)", perm)
		}
		routes = append(routes, auth.Route{Path: path, Permission: permission})
	}
	return routes, nil
}

func formatRoutes(routes []auth.Route) string {
	if len(routes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(routes))
	for _, r := range routes {
		parts = append(parts, fmt.Sprintf("%s:%s", r.Path, r.Permission))
	}
	return strings.Join(parts, ", ")
}
