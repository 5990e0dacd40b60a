// Command rotactl runs rotation operations against the configured store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	app "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/config"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

func main() {
	if err := Execute(context.Background(), os.Args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rotactl:", err)
		os.Exit(1)
	}
}

// Execute runs the CLI with args, writing results to out.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	r := &runner{ctx: ctx, out: out}
	a := cli.App{
		Name:      "rotactl",
		HelpName:  "rotactl",
		Usage:     "manage the presenter rotation",
		UsageText: "rotactl [--config file] <command> [arguments...]",
		Writer:    out,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "config, c",
				Usage:  "YAML configuration file",
				EnvVar: "MLATML_CONFIG",
			},
		},
		Commands: []cli.Command{
			{
				Name:   "schedule",
				Usage:  "print the schedule",
				Action: r.with(r.schedule),
			},
			{
				Name:   "roster",
				Usage:  "print the participants",
				Action: r.with(r.roster),
			},
			{
				Name:  "participant",
				Usage: "edit the roster",
				Subcommands: []cli.Command{
					{
						Name:      "add",
						Usage:     "add a participant",
						ArgsUsage: "<name>",
						Action:    r.with(r.addParticipant),
						Flags: []cli.Flag{
							cli.StringFlag{Name: "email, e", Usage: "address for confirmation requests"},
						},
					},
					{
						Name:      "remove",
						Usage:     "remove a participant",
						ArgsUsage: "<name>",
						Action:    r.with(r.removeParticipant),
					},
				},
			},
			{
				Name:   "usage",
				Usage:  "print presentation counts per participant",
				Action: r.with(r.usage),
				Flags: []cli.Flag{
					cli.StringFlag{Name: "q", Usage: "only names containing this text"},
				},
			},
			{
				Name:   "assign",
				Usage:  "propose presenters for every empty field",
				Action: r.with(r.assign),
				Flags: []cli.Flag{
					cli.Int64Flag{Name: "seed", Usage: "tie-breaking seed (default from configuration)"},
				},
			},
			{
				Name:   "extend",
				Usage:  "append empty weeks to the schedule",
				Action: r.with(r.extend),
				Flags: []cli.Flag{
					cli.IntFlag{Name: "weeks, w", Usage: "number of weeks (default from configuration)"},
				},
			},
		},
	}
	return a.Run(args)
}

type runner struct {
	ctx context.Context
	out io.Writer
	svc *app.Service
}

// with opens the service from configuration around fn.
func (r *runner) with(fn func(*cli.Context) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		cfg, err := config.LoadFile(r.ctx, c.GlobalString("config"))
		if err != nil {
			return err
		}
		if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat, Writer: os.Stderr}); err != nil {
			return err
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}

		svc, err := app.FromConfig(r.ctx, cfg, r.out, logger.Named("rotactl"))
		if err != nil {
			return err
		}
		defer svc.Stop()
		r.svc = svc
		return fn(c)
	}
}

func (r *runner) schedule(*cli.Context) error {
	sched, version, err := r.svc.Schedule(r.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPRESENTER 1\tPRESENTER 2")
	for _, s := range sched {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key(), s.Presenters[0], s.Presenters[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "version %s\n", version)
	return nil
}

func (r *runner) roster(*cli.Context) error {
	roster, err := r.svc.Roster(r.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL")
	for _, p := range roster {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Email)
	}
	return tw.Flush()
}

func (r *runner) usage(c *cli.Context) error {
	entries, err := r.svc.Usage(r.ctx, c.String("q"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOUNT\tPOINTS\tSCORE\tBAND")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%g\t%.2f\t%s\n", e.Name, e.Count, e.Points, e.Score, e.Band)
	}
	return tw.Flush()
}

func (r *runner) assign(c *cli.Context) error {
	seed := r.svc.DefaultSeed()
	if c.IsSet("seed") {
		seed = c.Int64("seed")
	}
	res, err := r.svc.Assign(r.ctx, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "proposed %d (relaxed %d) with seed %d\n", res.Proposed, res.Relaxed, res.Seed)
	return r.schedule(c)
}

func (r *runner) extend(c *cli.Context) error {
	sched, err := r.svc.Extend(r.ctx, c.Int("weeks"))
	if err != nil {
		return err
	}
	last, _ := sched.Last()
	fmt.Fprintf(r.out, "schedule has %d slots, last on %s\n", len(sched), last.Format(model.DateLayout))
	return nil
}

func (r *runner) addParticipant(c *cli.Context) error {
	name := strings.TrimSpace(strings.Join(c.Args(), " "))
	if name == "" {
		return cli.NewExitError("participant name required", 2)
	}
	p := model.Participant{Name: name, Email: c.String("email")}
	if err := r.svc.AddParticipant(r.ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "added %s\n", name)
	return nil
}

func (r *runner) removeParticipant(c *cli.Context) error {
	name := strings.TrimSpace(strings.Join(c.Args(), " "))
	if name == "" {
		return cli.NewExitError("participant name required", 2)
	}
	if err := r.svc.RemoveParticipant(r.ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "removed %s\n", name)
	return nil
}
