package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/coryo/plexdesk/internal/browser"
	"github.com/coryo/plexdesk/internal/cache"
	"github.com/coryo/plexdesk/internal/catalog"
)

func browseCommand() *cobra.Command {
	var (
		sort     string
		all      bool
		prefetch bool
	)

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse a catalog container",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			path := "/library/sections"
			if len(args) == 1 {
				path = args[0]
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			blobs, err := cache.Open(c.log, c.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer blobs.Close()
			defer blobs.Trim(c.cfg.Cache.MaxEntries)

			model := browser.NewListModel(c.log, client, blobs, browser.ModelConfig{
				PageSize:    c.cfg.Browser.PageSize,
				ThumbWidth:  c.cfg.Browser.ThumbWidth,
				ThumbHeight: c.cfg.Browser.ThumbHeight,
				QueueDepth:  c.cfg.Browser.QueueDepth,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go model.Run(ctx)

			loc := catalog.Location{Key: path, Sort: sort}
			if err := fill(model, loc, all); err != nil {
				return err
			}

			if prefetch {
				warmThumbnails(model)
			}

			return printContainer(c, model)
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "sort key, e.g. titleSort:asc")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "warm the thumbnail cache for fetched rows")

	return cmd
}

// fill drives the list model until the requested pages have landed.
func fill(model *browser.ListModel, loc catalog.Location, all bool) error {
	if !model.Fetch(loc) {
		return fmt.Errorf("fetch rejected")
	}
	for {
		event, err := nextEvent(model)
		if err != nil {
			return err
		}
		switch event.Kind {
		case browser.EventFetchFailed:
			return event.Err
		case browser.EventContainerReplaced, browser.EventRowsAppended:
			if all && model.CanFetchMore() {
				model.FetchMore()
				continue
			}
			return nil
		}
	}
}

func nextEvent(model *browser.ListModel) (browser.Event, error) {
	select {
	case event := <-model.Events():
		return event, nil
	case <-time.After(time.Minute):
		return browser.Event{}, fmt.Errorf("timed out waiting for container")
	}
}

// warmThumbnails pushes every fetched row through the thumbnail pipeline so
// the blob cache is hot for the next session.
func warmThumbnails(model *browser.ListModel) {
	rows := make([]int, model.Len())
	wanted := 0
	for i := range rows {
		rows[i] = i
		if item, ok := model.Item(i); ok && item.ThumbURL != "" {
			wanted++
		}
	}
	model.SetVisibleRows(rows)

	deadline := time.After(30 * time.Second)
	for wanted > 0 {
		select {
		case event := <-model.Events():
			if event.Kind == browser.EventRowChanged {
				wanted--
			}
		case <-deadline:
			return
		}
	}
}

func printContainer(c *cli, model *browser.ListModel) error {
	if c.jsonOut {
		items := make([]catalog.Item, 0, model.Len())
		for i := 0; i < model.Len(); i++ {
			if item, ok := model.Item(i); ok {
				item.Thumb = nil
				items = append(items, item)
			}
		}
		return c.printJSON(map[string]any{
			"items":     items,
			"totalSize": model.TotalSize(),
		})
	}

	title1, title2 := model.Titles()
	if title1 != "" {
		pterm.DefaultSection.Println(joinTitles(title1, title2))
	}
	rows := pterm.TableData{{"KIND", "TITLE", "KEY"}}
	for i := 0; i < model.Len(); i++ {
		item, ok := model.Item(i)
		if !ok {
			continue
		}
		title := item.Title
		if item.Watched {
			title += " " + pterm.Gray("(watched)")
		}
		rows = append(rows, []string{item.Kind.String(), title, item.Key})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	if model.Len() < model.TotalSize() {
		pterm.Info.Printfln("%d of %d items (use --all for the rest)", model.Len(), model.TotalSize())
	}
	return nil
}

func joinTitles(title1 string, title2 string) string {
	if title2 == "" {
		return title1
	}
	return title1 + " / " + title2
}

func searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the server's hubs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := fromContext(cmd)
			client, err := c.client()
			if err != nil {
				return err
			}

			ctx, cancel := c.withTimeout(context.Background())
			defer cancel()

			hubs, err := client.Search(ctx, args[0])
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.printJSON(hubs)
			}
			for _, hub := range hubs {
				pterm.DefaultSection.Println(hub.Title)
				rows := pterm.TableData{}
				for _, item := range hub.Items {
					rows = append(rows, []string{item.Kind.String(), item.Title, item.Key})
				}
				if err := pterm.DefaultTable.WithData(rows).Render(); err != nil {
					return err
				}
			}
			if len(hubs) == 0 {
				pterm.Info.Println("no results")
			}
			return nil
		},
	}
	return cmd
}
