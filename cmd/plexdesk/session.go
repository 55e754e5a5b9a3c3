package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/coryo/plexdesk/internal/catalog"
)

func signinCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "signin <username>",
		Short: "Sign in to the cloud session service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			username := args[0]

			if password == "" {
				entered, err := pterm.DefaultInteractiveTextInput.
					WithMask("*").
					Show("Password")
				if err != nil {
					return err
				}
				password = entered
			}

			ctx, cancel := c.withTimeout(context.Background())
			defer cancel()

			token, err := c.cloud.SignIn(ctx, username, password)
			if err != nil {
				return err
			}

			server, _, _ := c.settings.Session()
			if err := c.settings.SetSession(server, username, token); err != nil {
				return err
			}

			if c.jsonOut {
				return c.printJSON(map[string]string{"username": username, "token": token})
			}
			pterm.Success.Printfln("signed in as %s", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")

	return cmd
}

func serversCommand() *cobra.Command {
	var use string

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List servers registered to the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)

			_, user, token := c.settings.Session()
			if c.cfg.Server.Token != "" {
				token = c.cfg.Server.Token
			}
			if token == "" {
				return catalog.ErrAuthentication
			}

			ctx, cancel := c.withTimeout(context.Background())
			defer cancel()

			devices, err := c.cloud.Devices(ctx, token)
			if err != nil {
				return err
			}
			servers := catalog.Servers(devices)

			if use != "" {
				return selectServer(ctx, c, servers, use, user)
			}

			if c.jsonOut {
				return c.printJSON(servers)
			}
			rows := pterm.TableData{{"NAME", "ID", "CONNECTIONS"}}
			for _, server := range servers {
				rows = append(rows, []string{
					server.Name,
					server.ClientIdentifier,
					pterm.Gray(len(server.Connections)),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}

	cmd.Flags().StringVar(&use, "use", "", "check connectivity to the named server and persist it as the session server")

	return cmd
}

func selectServer(ctx context.Context, c *cli, servers []catalog.Device, name string, user string) error {
	for _, server := range servers {
		if server.Name != name && server.ClientIdentifier != name {
			continue
		}
		uri, err := c.cloud.BestConnection(ctx, server)
		if err != nil {
			return err
		}
		if err := c.settings.SetSession(uri, user, server.AccessToken); err != nil {
			return err
		}
		if c.jsonOut {
			return c.printJSON(map[string]string{"server": server.Name, "uri": uri})
		}
		pterm.Success.Printfln("using %s at %s", server.Name, uri)
		return nil
	}
	return catalog.ErrNotFound
}
