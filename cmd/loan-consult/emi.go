package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/output"
	"github.com/kkfinancial/loan-consult/pkg/tenure"
	"github.com/kkfinancial/loan-consult/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type emiOptions struct {
	principal    string
	rate         string
	tenure       string
	schedule     bool
	outputFormat string
}

func newEMICommand(root *rootOptions) *cobra.Command {
	opts := &emiOptions{}
	cmd := &cobra.Command{
		Use:   "emi",
		Short: "Calculate the monthly installment for a loan",
		Example: "  loan-consult emi --principal 2500000 --rate 8.5 --tenure 20y\n" +
			"  loan-consult emi --principal 25,00,000 --rate 8.5 --tenure 240 --schedule --output-format csv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEMI(cmd.OutOrStdout(), root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.principal, "principal", "", "loan amount")
	flags.StringVar(&opts.rate, "rate", "", "annual interest rate in percent")
	flags.StringVar(&opts.tenure, "tenure", "", `tenure such as "20y", "1y6m" or "240" (months)`)
	flags.BoolVar(&opts.schedule, "schedule", false, "include the amortization breakdown")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("tenure")
	return cmd
}

func runEMI(w io.Writer, root *rootOptions, opts *emiOptions) error {
	conf, err := root.loadConfiguration()
	if err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, root.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = strings.ToLower(opts.outputFormat)
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	months, err := tenure.Parse(opts.tenure)
	if err != nil {
		return fmt.Errorf("invalid tenure: %w", err)
	}
	params := emi.ParseParameters(opts.principal, opts.rate, fmt.Sprint(months), emi.Months)
	result, ok := params.Compute()
	if !ok {
		logger.Debug("inputs not computable",
			zap.String("op", "main.emi"),
			zap.String("principal", opts.principal),
			zap.String("rate", opts.rate),
			zap.String("tenure", opts.tenure),
		)
		return errors.New("principal, rate and tenure must all be positive numbers")
	}

	var schedule []emi.Installment
	if opts.schedule {
		if schedule, ok = emi.Schedule(params); !ok {
			return fmt.Errorf("schedules are limited to %d months, got %d", constants.MaxScheduleMonths, params.TenureMonths)
		}
	}

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, params, result, schedule)
	default:
		var yearly []emi.YearSummary
		if len(schedule) > 0 {
			yearly = emi.Yearly(schedule)
		}
		return output.PrettyFormat(w, params, result, yearly, conf.Grouping())
	}
}
