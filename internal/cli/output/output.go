// Package output formata o resultado dos comandos da CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/draff227/bslc/internal/core/domain"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

func normalize(format string) (string, error) {
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}
	if format != FormatTable && format != FormatJSON {
		return "", fmt.Errorf("invalid --format value %q", format)
	}
	return format, nil
}

func PrintQuote(w io.Writer, quote domain.Quote, format string) error {
	format, err := normalize(format)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		return printJSON(w, quote)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FROM\t%s\n", quote.PickupStation.Name)
	fmt.Fprintf(tw, "TO\t%s\n", quote.DestinationStation.Name)
	fmt.Fprintf(tw, "VOLUME\t%.2f m³\n", quote.Volume)
	fmt.Fprintf(tw, "COLLATERAL\t%.2f ISK\n", quote.Collateral)
	fmt.Fprintf(tw, "BASE PRICE\t%.2f ISK\n", quote.BasePrice)
	fmt.Fprintf(tw, "COLLATERAL FEE\t%.2f ISK\n", quote.CollateralFee)
	fmt.Fprintf(tw, "TOTAL\t%.2f ISK\n", quote.TotalPrice)
	return tw.Flush()
}

func PrintStations(w io.Writer, stations []domain.Station, format string) error {
	format, err := normalize(format)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		return printJSON(w, map[string]any{"stations": stations})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSYSTEM_ID\tSYSTEM\tNAME")
	for _, station := range stations {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", station.ID, station.SystemID, station.SystemName, station.Name)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
