package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"horse.fit/partyplan/internal/funtranslate"
)

func runCategories(args []string) int {
	fs := flag.NewFlagSet("categories", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	format := fs.String("format", outputFormatText, "Output format: text or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	descriptors := funtranslate.DefaultRegistry().Descriptors()
	if outputFormat == outputFormatJSON {
		if err := printJSON(descriptors); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "CATEGORY\tROUND TRIP")
	for _, descriptor := range descriptors {
		fmt.Fprintf(writer, "%s\t%s\n", descriptor.Name, strconv.FormatBool(descriptor.RoundTrip))
	}
	if err := writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
