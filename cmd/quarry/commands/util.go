package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/cli/prompt"
	"github.com/quarryhq/quarry/pkg/apiclient"
)

var (
	serverURL string
	tokenFlag string
)

// registerClientFlags adds the connection flags shared by every command that
// talks to a running server.
func registerClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&serverURL, "url", "http://localhost:8080", "Server base URL")
	cmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Access token as alias:secret (default: $QUARRY_TOKEN)")
}

// newClient builds an API client from the connection flags. The secret is
// prompted for when only an alias is given.
func newClient() (*apiclient.Client, error) {
	cred := tokenFlag
	if cred == "" {
		cred = os.Getenv("QUARRY_TOKEN")
	}
	if cred == "" {
		return nil, errors.New("no credentials: pass --token alias:secret or set QUARRY_TOKEN")
	}

	alias, secret, found := strings.Cut(cred, ":")
	if alias == "" {
		return nil, errors.New("credentials must include an alias")
	}
	if !found || secret == "" {
		var err error
		if secret, err = prompt.Secret(fmt.Sprintf("Secret for %s", alias)); err != nil {
			return nil, err
		}
	}

	client := apiclient.New(serverURL)
	client.SetCredentials(alias, secret)
	return client, nil
}
