package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/session"
	"github.com/autobrr/tqv/pkg/stringutils"
	"github.com/autobrr/tqv/pkg/torrent"
)

var (
	flagListJSON  bool
	flagListExpr  []string
	flagListWatch time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list [CLIENT]",
	Short: "List the torrents of a client",
	Long: `This command lists the torrents of a client as display records, either as a table
or as JSON. With --watch the listing is refreshed until interrupted.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// init core
		if !initialized {
			initCore(false)
			initialized = true
		}

		// set log
		log := logger.GetLogger("list")

		var filter []expression.CompiledExpression
		for _, text := range flagListExpr {
			exp, err := expression.CompileOne(text)
			if err != nil {
				log.WithError(err).Fatal("Failed compiling list expression")
			}
			filter = append(filter, exp)
		}

		render := func(torrents []torrent.Torrent) {
			shown, err := filterTorrents(torrents, filter)
			if err != nil {
				log.WithError(err).Error("Failed evaluating list expression")
				return
			}

			if flagListJSON {
				err = renderJSON(os.Stdout, format.PresentAll(shown))
			} else {
				err = renderTable(os.Stdout, format.PresentAll(shown), config.Config.Display.NameWidth)
			}
			if err != nil {
				log.WithError(err).Error("Failed rendering torrents")
			}
		}

		if !cmd.Flags().Changed("watch") {
			s, _ := newSession(ctx, log, args[0])
			if err := s.Refresh(ctx); err != nil {
				log.WithError(err).Fatal("Failed retrieving torrents")
			}

			render(s.List())
			return
		}

		interval := flagListWatch
		if interval <= 0 {
			interval = config.Config.Display.Interval
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, _ := newSession(ctx, log, args[0], session.WithOnUpdate(func(torrents []torrent.Torrent) {
			fmt.Fprintf(os.Stdout, "--- %s\n", time.Now().Format(time.TimeOnly))
			render(torrents)
		}))

		log.Infof("Watching every %s, press Ctrl+C to stop", interval)
		_ = s.Run(ctx, interval)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "Print records as JSON")
	listCmd.Flags().StringArrayVar(&flagListExpr, "expr", nil, "Only list torrents matching this expression (repeatable, all must match)")
	listCmd.Flags().DurationVar(&flagListWatch, "watch", 0, "Refresh the listing, --watch=DURATION overrides the configured interval")
	listCmd.Flags().Lookup("watch").NoOptDefVal = "0s"
	listCmd.Flags().StringVar(&flagFilterName, "filter", "", "Filter to use instead of client")
}

// filterTorrents keeps the torrents matching every expression.
func filterTorrents(torrents []torrent.Torrent, exps []expression.CompiledExpression) ([]torrent.Torrent, error) {
	if len(exps) == 0 {
		return torrents, nil
	}

	var out []torrent.Torrent
	for _, t := range torrents {
		match, err := expression.CheckTorrentAllMatch(&t, exps)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", t.Name, err)
		} else if match {
			out = append(out, t)
		}
	}

	return out, nil
}

func renderJSON(w io.Writer, records []torrent.Record) error {
	if records == nil {
		records = []torrent.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var tableColumns = []struct {
	title string
	width int
}{
	{"ID", 5},
	{"NAME", 0},
	{"PROGRESS", 9},
	{"DONE", 10},
	{"SIZE", 10},
	{"PEERS", 6},
	{"ETA", 10},
	{"STATUS", 12},
	{"DOWN", 12},
	{"UP", 12},
}

func renderTable(w io.Writer, records []torrent.Record, nameWidth int) error {
	row := func(values ...string) string {
		cells := make([]string, len(values))
		for i, v := range values {
			width := tableColumns[i].width
			if width == 0 {
				width = nameWidth
				v = stringutils.Truncate(v, width)
			}
			cells[i] = stringutils.LeftJust(v, " ", width)
		}
		return strings.TrimRight(strings.Join(cells, " "), " ")
	}

	titles := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		titles[i] = c.title
	}

	if _, err := fmt.Fprintln(w, row(titles...)); err != nil {
		return err
	}

	for _, r := range records {
		line := row(
			fmt.Sprintf("%d", r.ID),
			r.Name,
			format.Percent(r.Progress),
			r.Downloaded,
			r.Total,
			fmt.Sprintf("%d", r.Peers),
			r.ETA,
			r.Status.String(),
			optional(r.DownSpeed),
			optional(r.UpSpeed),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
