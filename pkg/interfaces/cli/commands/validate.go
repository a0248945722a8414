package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/interfaces/cli/output"
)

// validateCmd audits the BOM graph of a scenario
type validateCmd struct {
	scenarioFlags
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check a scenario for cycles, self loops and duplicate edges" }
func (*validateCmd) Usage() string {
	return `bom validate -data <dir> [-format text|json]

  Exits with status 1 when the graph has problems.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
}

func (c *validateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, format, err := c.load(ctx)
	if err != nil {
		return usageError(err)
	}

	result, err := sc.svc.ValidateGraph(ctx)
	if err != nil {
		return failure(err)
	}
	if err := output.Validation(c.writer(), result, format); err != nil {
		return failure(err)
	}
	if !result.Valid() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
