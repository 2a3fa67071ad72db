package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/soulparking/dashboard/internal/analytics"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/daterange"
)

const (
	chartHeight = 10
	chartWidth  = 48
	lotCapacity = 200
)

// rangeFlags are the --preset, --from and --to flags shared by range commands.
type rangeFlags struct {
	preset string
	from   string
	to     string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "Named range: "+strings.Join(append(append([]string{}, daterange.Presets...), daterange.PresetAll), ", "))
	cmd.Flags().StringVar(&f.from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day (YYYY-MM-DD)")
}

// resolve turns the flags into a selection, using fallback when none are set.
func (f *rangeFlags) resolve(e *env, fallback string) (daterange.Selection, error) {
	loc, err := e.location()
	if err != nil {
		return daterange.Selection{}, err
	}
	now := e.now().In(loc)

	query := url.Values{}
	query.Set("date_range", f.preset)
	query.Set("from", f.from)
	query.Set("to", f.to)
	sel, ok, err := daterange.ParseQuery(query, now)
	if err != nil {
		return daterange.Selection{}, err
	}
	if ok {
		return sel, nil
	}

	r, err := daterange.FromPreset(fallback, now)
	if err != nil {
		return daterange.Selection{}, err
	}
	return daterange.Selection{Range: r, Preset: fallback}, nil
}

func newDashboardCmd(e *env) *cobra.Command {
	var flags rangeFlags

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard summary and hourly occupancy chart",
		Example: `  parkctl dashboard
  parkctl dashboard --preset this_week
  parkctl dashboard --from 2023-10-20 --to 2023-10-26`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := flags.resolve(e, daterange.PresetToday)
			if err != nil {
				return err
			}
			return e.withUser(cmd.Context(), false, func(*parkauth.User) error {
				printDashboard(cmd.OutOrStdout(), sel, analytics.Generate(sel.Range, analytics.DefaultSpanDays))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newOverviewCmd(e *env) *cobra.Command {
	var flags rangeFlags

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print the network overview (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := flags.resolve(e, daterange.PresetThisWeek)
			if err != nil {
				return err
			}
			return e.withUser(cmd.Context(), true, func(*parkauth.User) error {
				printOverview(cmd.OutOrStdout(), sel, analytics.Overview(sel.Range, analytics.OverviewDefaultSpanDays))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func printHeading(w io.Writer, title string, sel daterange.Selection, spanDays int) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(w, title)
	if sel.Range.Complete() {
		fmt.Fprintf(w, "%s: %s (%d days)\n\n", daterange.Label(sel.Preset), sel.Range, spanDays)
		return
	}
	fmt.Fprintf(w, "%s (%d day default)\n\n", daterange.Label(sel.Preset), spanDays)
}

func printDashboard(w io.Writer, sel daterange.Selection, m analytics.Metrics) {
	printHeading(w, "PARKING DASHBOARD", sel, m.SpanDays)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Revenue\t%s\n", analytics.FormatRupiah(m.Summary.Revenue))
	fmt.Fprintf(tw, "Transactions\t%d\n", m.Summary.Transactions)
	fmt.Fprintf(tw, "Occupancy\t%d%%\n", m.Summary.OccupancyPercent)
	fmt.Fprintf(tw, "Occupied Spaces\t%d / %d\n", m.Summary.OccupiedSpaces, lotCapacity)
	tw.Flush()
	fmt.Fprintln(w)

	if len(m.HourlyOccupancy) > 0 {
		data := make([]float64, 0, len(m.HourlyOccupancy))
		for _, sample := range m.HourlyOccupancy {
			data = append(data, float64(sample.Vehicles))
		}
		caption := fmt.Sprintf("Vehicles by hour, %s to %s",
			m.HourlyOccupancy[0].Time, m.HourlyOccupancy[len(m.HourlyOccupancy)-1].Time)
		fmt.Fprintln(w, asciigraph.Plot(data,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption(caption),
		))
		fmt.Fprintln(w)
	}

	printSlices(w, "Income by payment method", m.IncomeByMethod, analytics.FormatRupiah)
	printSlices(w, "Vehicle types", m.VehicleShares, percentValue)
	printSlices(w, "Customer segments", m.Segmentation, percentValue)
	printSlices(w, "Parking duration", m.Durations, func(v int64) string { return fmt.Sprintf("%d", v) })
}

func printOverview(w io.Writer, sel daterange.Selection, o analytics.OverviewMetrics) {
	printHeading(w, "NETWORK OVERVIEW", sel, o.SpanDays)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Net Revenue\tRp %s M\n", o.RevenueMillions)
	fmt.Fprintf(tw, "Vehicles\t%d\n", o.Vehicles)
	fmt.Fprintf(tw, "Uptime\t%s\n", o.Uptime)
	fmt.Fprintf(tw, "Avg Session\t%s\n", o.AvgSession)
	tw.Flush()
	fmt.Fprintln(w)

	if len(o.RevenueSeries) > 0 {
		data := make([]float64, 0, len(o.RevenueSeries))
		for _, point := range o.RevenueSeries {
			data = append(data, float64(point.Revenue)/1_000_000)
		}
		fmt.Fprintln(w, asciigraph.Plot(data,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption("Daily revenue (million Rp)"),
		))
		fmt.Fprintln(w)
	}

	printSlices(w, "Vehicles by location", o.LocationVehicles, func(v int64) string { return fmt.Sprintf("%d", v) })
}

func printSlices(w io.Writer, title string, slices []analytics.Slice, format func(int64) string) {
	color.New(color.Bold).Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, slice := range slices {
		fmt.Fprintf(tw, "  %s\t%s\n", slice.Name, format(slice.Value))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func percentValue(v int64) string {
	return fmt.Sprintf("%d%%", v)
}
