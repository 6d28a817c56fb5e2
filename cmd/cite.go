package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/citation"
	"github.com/osc-library/pmcdash/format"
)

var (
	citeInput   string
	citeOutput  string
	citeFormat  string
	citeNoIssue bool
)

var citeCmd = &cobra.Command{
	Use:   "cite",
	Short: "Print the archive citation of every record in a page",
	Long: `Render the citation stored in the archive for each record of a
harvested page, one per line, prefixed with the PMC id.

Input defaults to stdin, output defaults to stdout.

Examples:
  pmcdash cite -i page.xml
  cat page.xml | pmcdash cite --no-default-issue`,
	Args: cobra.NoArgs,
	RunE: runCite,
}

func init() {
	citeCmd.Flags().StringVarP(&citeInput, "input", "i", "", "Input file (default: stdin)")
	citeCmd.Flags().StringVarP(&citeOutput, "output", "o", "", "Output file (default: stdout)")
	citeCmd.Flags().StringVarP(&citeFormat, "format", "f", "jats", "Harvest format")
	citeCmd.Flags().BoolVar(&citeNoIssue, "no-default-issue", false, "Do not default a missing issue")
}

func runCite(cmd *cobra.Command, args []string) (err error) {
	input, inputName, closeInput, err := openInput(citeInput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInput(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	var output io.Writer = os.Stdout
	if citeOutput != "" {
		f, err := os.Create(citeOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		output = f
	}

	parser, err := format.GetParser(citeFormat)
	if err != nil {
		return fmt.Errorf("unknown source format %q: %w", citeFormat, err)
	}

	opts, err := citationOptions()
	if err != nil {
		return err
	}

	records, err := parser.Split(input)
	if err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	cited := 0
	for _, rec := range records {
		if rec.Deleted {
			continue
		}
		a, err := parser.Extract(rec, &format.ParseOptions{SourceName: inputName})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", rec.Identifier, err)
			continue
		}
		a.Authors, _ = article.DedupeAuthors(a.Authors)
		if _, err := fmt.Fprintf(output, "PMC%s\t%s\n", a.ExternalID, citation.Render(a, opts)); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		cited++
	}

	fmt.Fprintf(os.Stderr, "Cited %d of %d records\n", cited, len(records))
	return nil
}

func citationOptions() (citation.Options, error) {
	cfg, err := loadConfig()
	if err != nil {
		return citation.Options{}, err
	}
	opts := citation.Options{DefaultIssue: cfg.Citation.DefaultIssue, IssueValue: cfg.Citation.IssueValue}
	if citeNoIssue {
		opts.DefaultIssue = false
	}
	return opts, nil
}
