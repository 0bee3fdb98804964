package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Black-And-White-Club/demonlist-tracker/app"
	"github.com/Black-And-White-Club/demonlist-tracker/app/eventbus"
	"github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist"
	demonlistservice "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/application"
	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistqueue "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/queue"
	demonlistrouter "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/router"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability"
	"github.com/Black-And-White-Club/demonlist-tracker/config"
	"github.com/urfave/cli/v2"
)

// session is what a one-shot command needs: the service and, for queue-aware commands,
// the loaded config and observability.
type session struct {
	cfg     *config.Config
	obs     observability.Observability
	service *demonlistservice.DemonListService
}

// withService opens the store, builds the service and runs fn. When NATS is configured,
// changes made by the command are announced so running servers reload.
func withService(c *cli.Context, fn func(ctx context.Context, s session) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	obsCfg := app.ObservabilityConfig(cfg, version)
	obsCfg.MetricsAddress = ""
	obsCfg.LogFormat = "text"
	obs, err := observability.Init(c.Context, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer obs.Shutdown(context.Background())

	db, err := app.OpenDatabase(c.Context, cfg, obs.Provider.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var notifier demonlistservice.Notifier
	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewNATS(c.Context, cfg.NATS.URL, cfg.Observability.ServiceName+"-cli", obs.Provider.Logger)
		if err != nil {
			return err
		}
		defer bus.Close()
		notifier = demonlistrouter.NewChangeNotifier(bus)
	}

	return fn(c.Context, session{
		cfg:     cfg,
		obs:     obs,
		service: demonlist.NewService(cfg, obs, db, notifier),
	})
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return c.Args().First(), nil
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill an empty store with the starter list and roster",
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, s session) error {
				seeded, err := s.service.Seed(ctx)
				if err != nil {
					return err
				}
				if seeded {
					fmt.Fprintln(c.App.Writer, "Seeded the starter list")
				} else {
					fmt.Fprintln(c.App.Writer, "Store already has levels, nothing to seed")
				}
				return nil
			})
		},
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "heal the stored list against the canonical order",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "enqueue", Usage: "insert a River job instead of running inline"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, s session) error {
				if c.Bool("enqueue") {
					if !s.cfg.Queue.Enabled {
						return errors.New("--enqueue needs queue.enabled with a postgres database")
					}
					queue, err := demonlistqueue.NewService(ctx, s.cfg.Database.DSN, s.service, s.obs.Provider.Logger, s.obs.Registry.DemonListMetrics, demonlistqueue.Options{})
					if err != nil {
						return err
					}
					defer queue.Close()
					jobID, err := queue.EnqueueReconcile(ctx, "cli")
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Enqueued reconcile job %d\n", jobID)
					return nil
				}

				res, err := s.service.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Reconciled: %d store ops, %d tier moves\n", res.Ops, res.Moves)
				return nil
			})
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print every player's points",
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, s session) error {
				standings, err := s.service.Standings(ctx)
				if err != nil {
					return err
				}
				return writeStandings(c.App.Writer, standings)
			})
		},
	}
}

func writeStandings(w io.Writer, standings []demonlistdomain.Standing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PLAYER\tACTIVE\tRESERVE\tBANKED\tCURRENT\tTOTAL\t")
	for _, st := range standings {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n", st.Player, st.Active, st.Reserve, st.Banked, st.Current, st.Total)
	}
	return tw.Flush()
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "replace the list and progress with a workbook",
		ArgsUsage: "<file.xlsx>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, s session) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				res, err := s.service.ImportSpreadsheet(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Imported %d levels for %d players\n", res.Levels, len(res.Players))
				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write the list and standings to a workbook",
		ArgsUsage: "<file.xlsx>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, s session) error {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := s.service.ExportSpreadsheet(ctx, f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:      "chart",
		Usage:     "render the standings bar chart as PNG",
		ArgsUsage: "<file.png>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, s session) error {
				png, err := s.service.StandingsChart(ctx)
				if err != nil {
					return err
				}
				return os.WriteFile(path, png, 0o644)
			})
		},
	}
}
