package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [affiliation...]",
	Short: "Show the unit assigned to affiliation strings",
	Long: `Run the affiliation classifier on each argument, or on each line of
stdin when no arguments are given, and print the matching rule, unit and
department.

Examples:
  pmcdash classify "Department of Psychiatry, Harvard Medical School, Boston, MA"
  cut -f3 affiliations.tsv | pmcdash classify`,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := classify.Load(cfg.Classifier.RulesFile, cfg.Classifier.DepartmentsFile)
	if err != nil {
		return fmt.Errorf("loading classifier: %w", err)
	}

	if len(args) > 0 {
		for _, text := range args {
			printAssignment(os.Stdout, classifier, text)
		}
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		printAssignment(os.Stdout, classifier, text)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}

func printAssignment(w io.Writer, c *classify.Classifier, text string) {
	result, ok := c.Classify(text)
	if !ok {
		fmt.Fprintf(w, "-\t-\t-\t%s\n", text)
		return
	}
	unit := result.Unit
	if unit == "" {
		unit = "?"
	}
	dept := strings.Join(result.Departments, "; ")
	if dept == "" {
		dept = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Rule, unit, dept, text)
}
