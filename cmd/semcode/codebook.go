package main

import (
	"fmt"
	"io"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func codebookCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codebook",
		Short: "Inspect codebook revisions",
	}
	cmd.AddCommand(
		codebookListCmd(g),
		codebookRevisionsCmd(),
		codebookDiffCmd(),
	)
	return cmd
}

func codebookListCmd(g *globals) *cobra.Command {
	var (
		revisionName string
		kindName     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the label to code mappings of a revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := g.revision(revisionName)
			if err != nil {
				return err
			}
			kinds := rev.Kinds()
			if kindName != "" {
				kind, err := mcal.ParseKind(kindName)
				if err != nil {
					return err
				}
				kinds = []mcal.Kind{kind}
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle(fmt.Sprintf("Codebook %s", rev.Name()))
			t.AppendHeader(table.Row{"Kind", "Label", "Code", "Case-folded"})
			for _, kind := range kinds {
				tbl, ok := rev.Table(kind)
				if !ok {
					return fmt.Errorf("revision %s has no %s table", rev.Name(), kind)
				}
				for _, e := range tbl.Entries() {
					t.AppendRow(table.Row{kind, e.Label, e.Code, tbl.FoldCase()})
				}
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&revisionName, "revision", "r", "", "Codebook revision (default from config)")
	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "Only list this vocabulary kind")
	return cmd
}

func codebookRevisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revisions",
		Short: "List the built-in codebook revisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := codebook.Revisions()
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Revision", "Description"})
			for _, name := range names {
				rev, err := codebook.Load(name)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{name, rev.Description()})
			}
			t.Render()
			return nil
		},
	}
}

func codebookDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Report labels whose code differs between two revisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := loadRevisionArg(args[0])
			if err != nil {
				return err
			}
			to, err := loadRevisionArg(args[1])
			if err != nil {
				return err
			}

			changes := codebook.Diff(from, to)
			if len(changes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s and %s map every label identically\n", from.Name(), to.Name())
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle(fmt.Sprintf("%s -> %s", from.Name(), to.Name()))
			t.AppendHeader(table.Row{"Kind", "Change", "Label", from.Name(), to.Name()})
			for _, c := range changes {
				t.AppendRow(table.Row{c.Kind, c.Type, c.Label, c.From, c.To})
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d changes", len(changes))})
			t.Render()
			return nil
		},
	}
}

// loadRevisionArg accepts a built-in revision name or a revision file path.
func loadRevisionArg(arg string) (*codebook.Revision, error) {
	rev, err := codebook.Load(arg)
	if err == nil {
		return rev, nil
	}
	if fileRev, ferr := codebook.LoadFile(arg); ferr == nil {
		return fileRev, nil
	}
	return nil, err
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
