package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/coryo/plexdesk/internal/catalog"
)

func watchedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watched <item-key>",
		Short: "Mark an item watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.withTimeout(context.Background())
			defer cancel()
			if err := client.MarkWatched(ctx, args[0]); err != nil {
				return err
			}
			pterm.Success.Println("marked watched")
			return nil
		},
	}
}

func unwatchedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unwatched <item-key>",
		Short: "Clear an item's watched state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.withTimeout(context.Background())
			defer cancel()
			if err := client.MarkUnwatched(ctx, args[0]); err != nil {
				return err
			}
			pterm.Success.Println("marked unwatched")
			return nil
		},
	}
}

func shortcutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcut",
		Short: "Manage per-server browse shortcuts",
	}

	var serverID string
	cmd.PersistentFlags().StringVar(&serverID, "server-id", "", "server the shortcut belongs to")

	resolveServer := func(c *cli) string {
		if serverID != "" {
			return serverID
		}
		server, _, _ := c.settings.Session()
		return server
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			shortcuts := c.settings.Shortcuts(resolveServer(c))
			if c.jsonOut {
				return c.printJSON(shortcuts)
			}
			if len(shortcuts) == 0 {
				pterm.Info.Println("no shortcuts")
				return nil
			}
			rows := pterm.TableData{{"NAME", "KEY", "SORT"}}
			for name, loc := range shortcuts {
				rows = append(rows, []string{name, loc.Key, loc.Sort})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}

	add := &cobra.Command{
		Use:   "add <name> <key>",
		Short: "Save a location under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			sort, _ := cmd.Flags().GetString("sort")
			loc := catalog.Location{Key: args[1], Sort: sort}
			if err := c.settings.AddShortcut(resolveServer(c), args[0], loc); err != nil {
				return err
			}
			pterm.Success.Printfln("saved %s", args[0])
			return nil
		},
	}
	add.Flags().String("sort", "", "sort key saved with the location")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			if err := c.settings.RemoveShortcut(resolveServer(c), args[0]); err != nil {
				return err
			}
			pterm.Success.Printfln("removed %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
