package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/omr-grader-mcp/internal/grader"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
)

func newGradeCommand(flags *globalFlags) *cobra.Command {
	var (
		sheetPath string
		keyPath   string
		details   bool
	)

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade one sheet photo against an answer key",
		Long: `Grade one sheet photo against an answer key and print the scores as JSON.

The key is an .xlsx, .csv or .json file. Each column is a subject and each
cell reads "<question>-<answer>", for example "12-b".

Output is the flat score object, e.g. {"Math": 18, "Physics": 15, "Total": 33}.
With --details the full evaluation (answers, per-question results) is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, err := newGrader(flags)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(sheetPath)
			if err != nil {
				return fmt.Errorf("failed to read sheet: %w", err)
			}
			img, _, err := imaging.Decode(data)
			if err != nil {
				return err
			}

			keyData, err := os.ReadFile(keyPath)
			if err != nil {
				return fmt.Errorf("failed to read answer key: %w", err)
			}

			ev, err := g.Evaluate(cmd.Context(), img, &grader.KeyInput{Name: keyPath, Data: keyData})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if details {
				return enc.Encode(ev)
			}
			return enc.Encode(ev.Scores)
		},
	}

	cmd.Flags().StringVar(&sheetPath, "sheet", "", "Sheet photo (png, jpeg, gif, bmp, tiff, webp)")
	cmd.Flags().StringVar(&keyPath, "key", "", "Answer key file (.xlsx, .csv, .json)")
	cmd.Flags().BoolVar(&details, "details", false, "Print the full evaluation instead of the scores")
	_ = cmd.MarkFlagRequired("sheet")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
