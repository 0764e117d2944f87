package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/transform"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/spf13/cobra"
)

func normalizeCmd(g *globals) *cobra.Command {
	var (
		kindName       string
		revisionName   string
		split          string
		asIRI          bool
		failOnUnmapped bool
	)

	cmd := &cobra.Command{
		Use:   "normalize --kind KIND [label...]",
		Short: "Map free-text labels to controlled-vocabulary codes",
		Long: `Normalize maps each label to its code in the selected codebook revision.
Labels come from the arguments, or from standard input one per line.
Unmapped labels yield the kind's unknown code and are logged.

With --split, every label is a separated list and the codes of one input
are printed on one line joined by the same separator, one code per element.
Empty and NA elements keep their position and print the unknown code.`,
		Example: `  semcode normalize --kind content-feature "actor visibility" naming
  cut -f3 annotations.tsv | semcode normalize --kind cat --split ,`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := mcal.ParseKind(kindName)
			if err != nil {
				return err
			}
			rev, err := g.revision(revisionName)
			if err != nil {
				return err
			}

			collector := normalize.NewCollector()
			n := normalize.New(rev, normalize.WithSink(
				normalize.Multi(collector, normalize.LogSink(g.logger))))

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			emit := func(input string) error {
				labels := []string{input}
				if split != "" {
					labels = strings.Split(input, split)
				}
				codes := make([]string, len(labels))
				for i, label := range labels {
					if split != "" && transform.IsAbsent(label) {
						codes[i] = kind.UnknownCode()
						continue
					}
					codes[i] = n.Normalize(kind, strings.TrimSpace(label))
				}
				if asIRI {
					for i, code := range codes {
						codes[i] = mcal.CodeIRI(kind, code)
					}
				}
				sep := "\n"
				if split != "" {
					sep = split
				}
				_, err := fmt.Fprintln(out, strings.Join(codes, sep))
				return err
			}

			if len(args) > 0 {
				for _, arg := range args {
					if err := emit(arg); err != nil {
						return err
					}
				}
			} else if err := eachLine(cmd.InOrStdin(), emit); err != nil {
				return err
			}

			if total := collector.Total(); total > 0 {
				g.logger.Info("Unmapped labels", "kind", kind, "occurrences", total, "labels", len(collector.Unmapped()))
				if failOnUnmapped {
					return fmt.Errorf("%d unmapped %s labels", total, kind)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "Vocabulary kind (content-feature, content-analysis-type, research-question-type)")
	cmd.Flags().StringVarP(&revisionName, "revision", "r", "", "Codebook revision (default from config)")
	cmd.Flags().StringVar(&split, "split", "", "Treat each label as a list separated by this string")
	cmd.Flags().BoolVar(&asIRI, "iri", false, "Print concept IRIs instead of codes")
	cmd.Flags().BoolVar(&failOnUnmapped, "fail-on-unmapped", false, "Exit with an error if any label is unmapped")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// eachLine calls fn for every line of r without its line terminator.
func eachLine(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := fn(strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read labels: %w", err)
	}
	return nil
}
