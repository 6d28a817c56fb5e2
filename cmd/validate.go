package cmd

import (
	"errors"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/classify"
	"github.com/osc-library/pmcdash/format"
)

var (
	validateInput   string
	validateFormat  string
	validateVerbose bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a harvested page without writing packages",
	Long: `Parse a harvested page and report records that cannot be extracted.

Records whose affiliations mention the institution are extracted and
classified. No identity lookups are made and nothing is written.

Input defaults to stdin.

Examples:
  pmcdash validate -i data/batch/pmc2013_05.2013_06_10/oai/page_0001.xml
  pmcdash validate -i page.xml --verbose`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Input file (default: stdin)")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "jats", "Harvest format")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Show detailed information")
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	input, inputName, closeInput, err := openInput(validateInput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInput(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	parser, err := format.GetParser(validateFormat)
	if err != nil {
		return fmt.Errorf("unknown format %q: %w", validateFormat, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := classify.Load(cfg.Classifier.RulesFile, cfg.Classifier.DepartmentsFile)
	if err != nil {
		return fmt.Errorf("loading classifier: %w", err)
	}

	records, err := parser.Split(input)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var deleted, screened, invalid int
	var articles []*article.Article
	var problems []string
	for _, rec := range records {
		if rec.Deleted {
			deleted++
			continue
		}
		ok, err := parser.Screen(rec, classifier.MentionsInstitution)
		if err != nil {
			invalid++
			problems = append(problems, fmt.Sprintf("%s: %v", rec.Identifier, err))
			continue
		}
		if !ok {
			continue
		}
		screened++

		a, err := parser.Extract(rec, &format.ParseOptions{SourceName: inputName})
		if err != nil {
			invalid++
			kind := "error"
			if errors.Is(err, format.ErrMissingField) {
				kind = "missing field"
			}
			problems = append(problems, fmt.Sprintf("%s: %s: %v", rec.Identifier, kind, err))
			continue
		}
		a.Authors, _ = article.DedupeAuthors(a.Authors)
		classifier.ClassifyArticle(a)
		articles = append(articles, a)
	}

	fmt.Printf("Parsed %d records from %s (%d deleted, %d mention the institution, %d invalid)\n",
		len(records), inputName, deleted, screened, invalid)

	for _, p := range problems {
		fmt.Printf("  ✗ %s\n", p)
	}

	if validateVerbose {
		fmt.Println("\nArticle summary:")
		for _, a := range articles {
			fmt.Printf("\n  PMC%s:\n", a.ExternalID)
			fmt.Printf("    Title: %s\n", runewidth.Truncate(a.Title, 60, "..."))
			fmt.Printf("    Type: %s\n", a.Type)
			fmt.Printf("    Authors: %d (%d matched)\n", len(a.Authors), len(a.MatchedAuthors()))
			fmt.Printf("    Units: %s\n", a.InstitutionUnits)
			if a.InstitutionDepartments.Len() > 0 {
				fmt.Printf("    Departments: %s\n", a.InstitutionDepartments)
			}
			if a.DOI != "" {
				fmt.Printf("    DOI: %s\n", a.DOI)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d records are invalid", invalid, len(records))
	}
	return nil
}
