package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/s22625/jobctl/internal/api"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// fieldFlag collects repeated --field name=value flags in order.
type fieldFlag struct {
	req model.StartRequest
}

var _ pflag.Value = (*fieldFlag)(nil)

func (f *fieldFlag) String() string {
	return f.req.Encode()
}

func (f *fieldFlag) Set(s string) error {
	field, err := model.ParseField(s)
	if err != nil {
		return err
	}
	f.req.Set(field.Name, field.Value)
	return nil
}

func (f *fieldFlag) Type() string {
	return "name=value"
}

type startOptions struct {
	Fields fieldFlag
	Form   bool
}

func newStartCmd() *cobra.Command {
	opts := &startOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a job",
		Long: `Start a job by submitting named fields to the server.

Fields are sent as a form in the order given. With --form an interactive
form is shown first; fields from the config file's form section become
inputs, and --field values override what the form collected.

A server that refuses the start prints "Error: <message>" and exits 2.`,
		Example: `  jobctl start --field target=abc --field mode=random
  jobctl start --form`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), opts)
		},
	}

	cmd.Flags().Var(&opts.Fields, "field", "Form field to submit (repeatable)")
	cmd.Flags().BoolVar(&opts.Form, "form", false, "Fill in the start form interactively")

	return cmd
}

func runStart(ctx context.Context, opts *startOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := opts.Fields.req
	if opts.Form {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--form needs an interactive terminal")
		}
		formReq, err := monitor.PromptStart(cfg.Form.Fields)
		if err != nil {
			return err
		}
		for _, f := range opts.Fields.req.Fields {
			formReq.Set(f.Name, f.Value)
		}
		req = formReq
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	resp, err := client.Start(ctx, req)
	if err != nil {
		return err
	}

	if globalOpts.JSON {
		output := struct {
			OK     bool   `json:"ok"`
			Result string `json:"result,omitempty"`
			Error  string `json:"error,omitempty"`
		}{
			OK:     !resp.Rejected(),
			Result: resp.Result,
			Error:  resp.Error,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return err
		}
	}
	if resp.Rejected() {
		return &api.RejectedError{Message: resp.Error}
	}

	if !globalOpts.JSON && !globalOpts.Quiet {
		if resp.Result != "" {
			fmt.Println(resp.Result)
		} else {
			fmt.Println("Job started")
		}
	}
	return nil
}
