package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/fintutor/internal/concepts"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the activity question catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import activity questions from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := concepts.Validate(); err != nil {
			return fmt.Errorf("concept catalog: %w", err)
		}
		questions, err := parseCatalog(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if unknown := unknownConceptTags(questions); len(unknown) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: tags outside the concept catalog: %s\n", strings.Join(unknown, ", "))
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.QuestionCatalog().Upsert(cmd.Context(), questions)
		if err != nil {
			return fmt.Errorf("import questions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions.\n", n)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list <activity>",
	Short: "List the questions of an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		questions, err := st.QuestionCatalog().ListActivity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(questions) == 0 {
			fmt.Fprintln(out, "No questions found.")
			return nil
		}
		for _, q := range questions {
			fmt.Fprintf(out, "%-16s  %-12s  %s  [%s]\n",
				truncate(q.QuestionKey, 16), truncate(q.CorrectAnswer, 12), q.QuestionText, strings.Join(q.ConceptTags, ","))
		}
		return nil
	},
}

var catalogConceptsCmd = &cobra.Command{
	Use:   "concepts",
	Short: "List the concept catalog with prerequisites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := concepts.Validate(); err != nil {
			return fmt.Errorf("concept catalog: %w", err)
		}
		renderConcepts(cmd.OutOrStdout(), concepts.All())
		return nil
	},
}

func renderConcepts(out io.Writer, cons []concepts.Concept) {
	for _, con := range cons {
		line := fmt.Sprintf("%-22s  %-20s  %s", con.ID, concepts.StrandDisplayName(con.Strand), con.Name)
		if pres := concepts.Prerequisites(con.ID); len(pres) > 0 {
			ids := make([]string, len(pres))
			for i, p := range pres {
				ids[i] = p.ID
			}
			line += "  (needs " + strings.Join(ids, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}
}

// unknownConceptTags returns the distinct tags that name no catalog concept.
func unknownConceptTags(questions []store.ActivityQuestion) []string {
	var unknown []string
	seen := make(map[string]bool)
	for _, q := range questions {
		for _, tag := range q.ConceptTags {
			if tag == "" || seen[tag] || concepts.Exists(tag) {
				continue
			}
			seen[tag] = true
			unknown = append(unknown, tag)
		}
	}
	return unknown
}

// catalogFile is the YAML import format. Questions inherit the file-level
// activity when they do not name one.
type catalogFile struct {
	Activity  string                   `yaml:"activity"`
	Questions []store.ActivityQuestion `yaml:"questions"`
}

func parseCatalog(r io.Reader) ([]store.ActivityQuestion, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, err
	}
	if len(file.Questions) == 0 {
		return nil, errors.New("no questions")
	}

	seen := make(map[string]bool, len(file.Questions))
	for i := range file.Questions {
		q := &file.Questions[i]
		if q.ActivityKey == "" {
			q.ActivityKey = file.Activity
		}
		q.ActivityKey = strings.TrimSpace(q.ActivityKey)
		q.QuestionKey = strings.TrimSpace(q.QuestionKey)
		switch {
		case q.ActivityKey == "":
			return nil, fmt.Errorf("question %d: activity is required", i+1)
		case q.QuestionKey == "":
			return nil, fmt.Errorf("question %d: key is required", i+1)
		case strings.TrimSpace(q.QuestionText) == "":
			return nil, fmt.Errorf("question %q: text is required", q.QuestionKey)
		}
		id := q.ActivityKey + "/" + q.QuestionKey
		if seen[id] {
			return nil, fmt.Errorf("duplicate question %q", id)
		}
		seen[id] = true
		for j, tag := range q.ConceptTags {
			q.ConceptTags[j] = mastery.Canonicalize(strings.TrimSpace(tag))
		}
	}
	return file.Questions, nil
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogConceptsCmd)
}
