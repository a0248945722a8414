package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/interfaces/cli/output"
)

// whereUsedCmd lists the assemblies that consume an item
type whereUsedCmd struct {
	scenarioFlags
	item  string
	depth int
}

func (*whereUsedCmd) Name() string     { return "where-used" }
func (*whereUsedCmd) Synopsis() string { return "list the assemblies that consume an item" }
func (*whereUsedCmd) Usage() string {
	return `bom where-used -data <dir> -item <code> [-depth n] [-format text|json]
`
}

func (c *whereUsedCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.item, "item", "", "Item code to look up")
	f.IntVar(&c.depth, "depth", 0, "Maximum number of levels to climb (defaults to 10)")
}

func (c *whereUsedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, format, err := c.load(ctx)
	if err != nil {
		return usageError(err)
	}
	id, err := sc.itemID(ctx, c.item)
	if err != nil {
		return failure(err)
	}

	depth := c.depth
	if depth == 0 {
		depth = sc.svc.DefaultMaxDepth()
	}
	result, err := sc.svc.WhereUsed(ctx, id, depth)
	if err != nil {
		return failure(err)
	}
	if err := output.WhereUsed(c.writer(), result, format); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
