package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/sweetpotato0/krishimitra/advisory"
)

func newAskCommand() *cobra.Command {
	var (
		question string
		pincode  string
		raw      bool
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask KrishiMitra one question and print the answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(question) == "" || strings.TrimSpace(pincode) == "" {
				return errors.New("both --question and --pincode are required")
			}
			quietLogging()

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			resp, err := a.advisor.Advise(cmd.Context(), advisory.Request{Question: question, Pincode: pincode})
			if err != nil {
				return err
			}
			if resp.Status == advisory.StatusSearchUnavailable {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: web search was unavailable, answering without local search results")
			}
			return printAnswer(cmd.OutOrStdout(), resp.Text, raw)
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "the farming question")
	cmd.Flags().StringVarP(&pincode, "pincode", "p", "", "Indian postal pincode")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the Markdown answer without terminal formatting")
	return cmd
}

// printAnswer writes the answer, formatted for the terminal unless raw is set.
// A renderer failure falls back to the raw text.
func printAnswer(w io.Writer, answer string, raw bool) error {
	if !raw {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err == nil {
			if out, err := r.Render(answer); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, answer)
	return err
}
