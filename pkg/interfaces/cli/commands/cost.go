package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/interfaces/cli/output"
)

// costCmd prints the cost summary of one root item
type costCmd struct {
	scenarioFlags
	root  string
	month string
}

func (*costCmd) Name() string     { return "cost" }
func (*costCmd) Synopsis() string { return "print the rolled-up cost of a root item" }
func (*costCmd) Usage() string {
	return `bom cost -data <dir> -root <code> [-month YYYY-MM] [-format text|json]

  Prices every component of the root for the month and totals material,
  labor, overhead and scrap revenue.
`
}

func (c *costCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.root, "root", "", "Item code of the assembly to cost")
	f.StringVar(&c.month, "month", "", "Price month (defaults to the current month)")
}

func (c *costCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month, err := parseMonth(c.month)
	if err != nil {
		return usageError(err)
	}
	sc, format, err := c.load(ctx)
	if err != nil {
		return usageError(err)
	}
	id, err := sc.itemID(ctx, c.root)
	if err != nil {
		return failure(err)
	}

	result, err := sc.svc.GetCostSummary(ctx, id, month)
	if err != nil {
		return failure(err)
	}
	if err := output.CostSummary(c.writer(), result, format); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
