package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/interfaces/cli/output"
)

// treeCmd prints a priced multi-level expansion
type treeCmd struct {
	scenarioFlags
	root  string
	depth int
	month string
}

func (*treeCmd) Name() string     { return "tree" }
func (*treeCmd) Synopsis() string { return "print the priced BOM expansion of a scenario" }
func (*treeCmd) Usage() string {
	return `bom tree -data <dir> [-root <code>] [-depth n] [-month YYYY-MM] [-format text|json]

  Expands one root item, or every root when -root is omitted.
`
}

func (c *treeCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.root, "root", "", "Item code to expand (defaults to every root)")
	f.IntVar(&c.depth, "depth", 0, "Maximum expansion depth (defaults to 10)")
	f.StringVar(&c.month, "month", "", "Price month (defaults to the current month)")
}

func (c *treeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month, err := parseMonth(c.month)
	if err != nil {
		return usageError(err)
	}
	sc, format, err := c.load(ctx)
	if err != nil {
		return usageError(err)
	}

	req := dto.TreeRequest{MaxDepth: c.depth, PriceMonth: month}
	if req.MaxDepth == 0 {
		req.MaxDepth = sc.svc.DefaultMaxDepth()
	}
	if c.root != "" {
		id, err := sc.itemID(ctx, c.root)
		if err != nil {
			return failure(err)
		}
		req.RootID = &id
	}

	nodes, err := sc.svc.GetFullTree(ctx, req)
	if err != nil {
		return failure(err)
	}
	if err := output.Tree(c.writer(), nodes, format); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
