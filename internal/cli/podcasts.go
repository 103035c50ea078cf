package cli

//
// podcasts.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/formats"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func podcastCommands() *cli.Command {
	return &cli.Command{
		Name:  "podcast",
		Usage: "manage podcasts",
		Commands: []*cli.Command{
			newRefreshPodcastsCmd(),
			newExportPodcastsCmd(),
			newImportPodcastsCmd(),
			newMergePodcastsCmd(),
			newPodcastAliasCmd(),
		},
	}
}

//---------------------------------------------------------------------

func newRefreshPodcastsCmd() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "fetch podcast metadata from feeds",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "refresh only podcast with given feed url"},
			&cli.DurationFlag{
				Name:  "max-age",
				Value: 24 * time.Hour, //nolint:mnd
				Usage: "refresh podcasts with metadata older than given age",
			},
			&cli.IntFlag{Name: "limit", Value: 100, Usage: "max number of podcasts to refresh"}, //nolint:mnd
		},
		Action: wrap(runRefreshPodcasts),
	}
}

//nolint:forbidigo
func runRefreshPodcasts(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	enrichSrv := do.MustInvoke[*service.EnrichSrv](injector)

	if url := clicmd.String("url"); url != "" {
		if err := enrichSrv.RefreshPodcastByURL(ctx, url); err != nil {
			return fmt.Errorf("refresh podcast error: %w", err)
		}

		fmt.Println("Podcast refreshed")

		return nil
	}

	staleBefore := time.Now().UTC().Add(-clicmd.Duration("max-age"))

	cnt, err := enrichSrv.RefreshOutdated(ctx, staleBefore, int(clicmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("refresh podcasts error: %w", err)
	}

	fmt.Printf("Refreshed %d podcasts\n", cnt)

	return nil
}

//---------------------------------------------------------------------

func newExportPodcastsCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export podcast directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: "format", Value: "opml", Aliases: []string{"f"},
				Usage: "output format (opml, xml, txt)",
			},
			&cli.StringFlag{
				Name: "output", Aliases: []string{"o"},
				Usage:     "output file; standard output when empty",
				TakesFile: true,
			},
		},
		Action: wrap(runExportPodcasts),
	}
}

func runExportPodcasts(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](injector)

	podcasts, err := podcastsSrv.GetAllPodcasts(ctx)
	if err != nil {
		return fmt.Errorf("get podcasts error: %w", err)
	}

	data, err := formatPodcasts(podcasts, clicmd.String("format"))
	if err != nil {
		return err
	}

	if output := clicmd.String("output"); output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil { //nolint:mnd
			return fmt.Errorf("write output file error: %w", err)
		}

		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("write output error: %w", err)
	}

	return nil
}

func formatPodcasts(podcasts model.Podcasts, format string) ([]byte, error) {
	switch format {
	case "opml":
		doc := formats.NewOPML("go-poddir")
		doc.AddPodcasts(podcasts)

		data, err := doc.XML()
		if err != nil {
			return nil, fmt.Errorf("format opml error: %w", err)
		}

		return data, nil

	case "xml":
		doc := formats.NewXMLPodcasts(podcasts)

		data, err := doc.XML()
		if err != nil {
			return nil, fmt.Errorf("format xml error: %w", err)
		}

		return data, nil

	case "txt":
		return []byte(strings.Join(podcasts.URLs(), "\n") + "\n"), nil
	}

	return nil, aerr.ErrValidation.WithUserMsg("unknown format %q", format)
}

//---------------------------------------------------------------------

func newImportPodcastsCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "import device subscriptions from opml file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{Name: "device", Required: true, Aliases: []string{"d"}},
			&cli.StringFlag{
				Name: "file", Required: true, Aliases: []string{"f"},
				Usage:     "opml file to import",
				TakesFile: true,
			},
		},
		Action: wrap(runImportPodcasts),
	}
}

//nolint:forbidigo
func runImportPodcasts(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	data, err := os.ReadFile(clicmd.String("file"))
	if err != nil {
		return fmt.Errorf("read opml file error: %w", err)
	}

	opml, err := formats.NewOPMLFromBytes(data)
	if err != nil {
		return fmt.Errorf("parse opml file error: %w", err)
	}

	urls := opml.FeedURLs()
	if len(urls) == 0 {
		return aerr.ErrValidation.WithUserMsg("no feed urls found in opml file")
	}

	subssrv := do.MustInvoke[*service.SubscriptionsSrv](injector)
	cmd := command.ReplaceSubscriptionsCmd{
		Username:      clicmd.String("username"),
		Devicename:    clicmd.String("device"),
		Subscriptions: urls,
		Timestamp:     time.Now().UTC(),
	}

	delta, err := subssrv.ReplaceSubscriptions(ctx, &cmd)
	if err != nil {
		return fmt.Errorf("import subscriptions error: %w", err)
	}

	fmt.Printf("Imported %d subscriptions; added: %d, removed: %d\n",
		len(urls), len(delta.Added), len(delta.Removed))

	return nil
}

//---------------------------------------------------------------------

func newMergePodcastsCmd() *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "group podcast urls pointing to the same show",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true, Aliases: []string{"t"}, Usage: "group title"},
			&cli.StringSliceFlag{Name: "url", Required: true, Usage: "feed url; repeat at least twice"},
		},
		Action: wrap(runMergePodcasts),
	}
}

//nolint:forbidigo
func runMergePodcasts(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](injector)

	cmd := command.MergePodcastsCmd{
		Title: clicmd.String("title"),
		URLs:  clicmd.StringSlice("url"),
	}

	group, err := podcastsSrv.MergePodcasts(ctx, &cmd)
	if err != nil {
		return fmt.Errorf("merge podcasts error: %w", err)
	}

	fmt.Printf("Group %q created; id: %d, members: %d\n", group.Title, group.ID, len(group.Podcasts))

	return nil
}

//---------------------------------------------------------------------

func newPodcastAliasCmd() *cli.Command {
	return &cli.Command{
		Name:  "alias",
		Usage: "assign slug or legacy numeric id alias to podcast",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "podcast feed url"},
			&cli.StringFlag{Name: "slug", Usage: "slug alias"},
			&cli.StringFlag{Name: "oldid", Usage: "numeric alias from previous directory"},
			&cli.BoolFlag{Name: "as-group", Usage: "alias point to whole podcast group"},
		},
		Action: wrap(runPodcastAlias),
	}
}

//nolint:forbidigo
func runPodcastAlias(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	var oldid int64

	if v := clicmd.String("oldid"); v != "" {
		var err error

		oldid, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return aerr.ErrValidation.WithUserMsg("invalid oldid %q", v)
		}
	}

	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](injector)
	cmd := command.AssignPodcastAliasCmd{
		URL:     clicmd.String("url"),
		Slug:    clicmd.String("slug"),
		OldID:   oldid,
		AsGroup: clicmd.Bool("as-group"),
	}

	if err := podcastsSrv.AssignAlias(ctx, &cmd); err != nil {
		return fmt.Errorf("assign alias error: %w", err)
	}

	fmt.Println("Alias assigned")

	return nil
}
