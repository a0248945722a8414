// Package commands implements the bom CLI subcommands.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/application/services/bom"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bomcost/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/bomcost/pkg/interfaces/cli/output"
)

// Register the subcommands.
// cmd/bom calls Register and then Execute on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&treeCmd{}, "bom")
	c.Register(&costCmd{}, "bom")
	c.Register(&whereUsedCmd{}, "bom")
	c.Register(&validateCmd{}, "bom")

	c.Register(&serveCmd{}, "server")
}

// scenarioFlags are shared by the commands that work on a CSV scenario
type scenarioFlags struct {
	dataDir string
	format  string
	out     io.Writer
}

func (s *scenarioFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&s.dataDir, "data", "", "Directory holding items.csv, bom.csv and optionally prices.csv")
	f.StringVar(&s.format, "format", "text", "Output format (text, json)")
}

func (s *scenarioFlags) writer() io.Writer {
	if s.out == nil {
		return os.Stdout
	}
	return s.out
}

// scenario is a CSV scenario loaded into the in-memory store
type scenario struct {
	store *memory.Store
	svc   *bom.Service
}

func (s *scenarioFlags) load(ctx context.Context) (*scenario, output.Format, error) {
	format, err := output.ParseFormat(s.format)
	if err != nil {
		return nil, "", err
	}
	if s.dataDir == "" {
		return nil, "", errors.New("-data is required")
	}

	store := memory.NewStore(64)
	if err := csv.NewLoader().LoadScenario(ctx, s.dataDir, store); err != nil {
		return nil, "", fmt.Errorf("failed to load scenario %s: %w", s.dataDir, err)
	}
	return &scenario{
		store: store,
		svc:   bom.NewService(store, store, store, store, bom.Options{}),
	}, format, nil
}

func (s *scenario) itemID(ctx context.Context, code string) (entities.ItemID, error) {
	if code == "" {
		return 0, errors.New("an item code is required")
	}
	item, err := s.store.GetItemByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func parseMonth(raw string) (entities.PriceMonth, error) {
	if raw == "" {
		return entities.PriceMonth{}, nil
	}
	return entities.ParsePriceMonth(raw)
}

func usageError(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}

func failure(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
