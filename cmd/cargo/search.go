package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/service"
)

var (
	searchField string
	searchAt    string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Print the cargo list, filtered and with urgent items marked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		now, err := evaluationTime(searchAt, cfg.Location())
		if err != nil {
			return err
		}
		return search(cmd.Context(), cmd.OutOrStdout(), cfg, log, query, searchField, now)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchField, "field", "", "restrict the search to one field (default: all fields)")
	searchCmd.Flags().StringVar(&searchAt, "at", "", "evaluate urgency at this RFC 3339 instant instead of now")
}

func search(ctx context.Context, out io.Writer, cfg *config.Config, log *zap.Logger, query, fieldName string, now time.Time) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	field, ok := cargo.ParseField(fieldName)
	if !ok && fieldName != "" {
		log.Warn("unknown field, searching all fields", zap.String("field", fieldName))
	}

	svc := service.NewCargoService(st, nil, log)
	records, err := svc.List(ctx, "", "")
	if err != nil {
		return errors.New(app.OpLoad.FailureMessage(err))
	}
	printListView(out, app.BuildListView(records, query, field, now))
	return nil
}

func printListView(out io.Writer, view app.ListView) {
	if view.Empty != "" {
		fmt.Fprintln(out, view.Empty)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tCONSIGNEE\tMAWB\tHAWBS\tETA\tSTATUS")
	for _, item := range view.Items {
		mark := ""
		if item.Urgent {
			mark = "!"
		}
		r := item.Record
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, r.Consignee, r.MasterAirWaybill, strings.Join(r.HouseAirWaybills, " "), item.ETADisplay, r.CurrentStatus)
	}
	tw.Flush()
}

// evaluationTime parses an --at flag, falling back to the current time in loc.
func evaluationTime(at string, loc *time.Location) (time.Time, error) {
	if at == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", at, err)
	}
	return t.In(loc), nil
}
