package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/coryo/plexdesk/internal/catalog"
	"github.com/coryo/plexdesk/internal/player"
)

func playCommand() *cobra.Command {
	var queueKeys []string

	cmd := &cobra.Command{
		Use:   "play <item-key>",
		Short: "Play an item through the native engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			client, err := c.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			seed, err := lookupItem(ctx, c, client, args[0])
			if err != nil {
				return err
			}

			engine, err := player.NewGstEngine(c.cfg.Player.Pipeline, c.cfg.Player.Device)
			if err != nil {
				return err
			}

			ctrl := player.NewQueueController(c.log, client, engine)
			current, err := ctrl.Create(ctx, seed)
			if err != nil {
				return err
			}
			for _, key := range queueKeys {
				item, err := lookupItem(ctx, c, client, key)
				if err != nil {
					return err
				}
				if err := ctrl.Queue(ctx, item); err != nil {
					return err
				}
			}

			bridge := player.NewBridge(c.log, engine, ctrl, ctrl, player.Callbacks{
				Started: func() {
					if item, ok := ctrl.Current(); ok {
						pterm.Info.Printfln("playing %s", item.Title)
					}
				},
				PersistVolume: func(level int) {
					if err := c.settings.SetVolume(level); err != nil {
						c.log.Warn("volume persist failed")
					}
				},
			}, player.BridgeConfig{TimelineThrottle: c.cfg.Player.TimelineThrottle})

			go ctrl.RunReporter(ctx)
			if err := bridge.SetVolume(c.settings.Volume()); err != nil {
				c.log.Warn("initial volume rejected")
			}
			if err := bridge.PlayItem(current); err != nil {
				return err
			}

			err = bridge.Run(ctx)
			if ctx.Err() != nil {
				// Interrupted; tell the server playback stopped before
				// tearing the engine down.
				reportStopped(c, client, ctrl)
				engine.Stop()
				engine.Close()
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&queueKeys, "queue", nil, "additional item keys appended to the play queue")

	return cmd
}

// lookupItem resolves a metadata key into its playable item.
func lookupItem(ctx context.Context, c *cli, client *catalog.Client, key string) (catalog.Item, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	container, err := client.ListContainer(reqCtx, key, 0, 1, "", nil)
	if err != nil {
		return catalog.Item{}, err
	}
	for _, item := range container.Items {
		if item.Playable() {
			return item, nil
		}
	}
	return catalog.Item{}, fmt.Errorf("%w: no playable item at %s", catalog.ErrNotFound, key)
}

func reportStopped(c *cli, client *catalog.Client, ctrl *player.QueueController) {
	item, ok := ctrl.Current()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.ReportTimeline(ctx, catalog.TimelineReport{
		ItemKey:    item.Key,
		DurationMS: item.DurationMS,
		State:      "stopped",
	}); err != nil {
		c.log.Warn("stop report failed")
	}
}
