package inventory

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/HerbHall/netswitch/pkg/models"
)

// DefaultInventoryCommand lists every interface in the table format read by
// ParseTable.
var DefaultInventoryCommand = []string{"netsh", "interface", "show", "interface"}

// NamePlaceholder is replaced by the interface name in probe command args.
const NamePlaceholder = "{name}"

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, argv []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes argv[0] with the remaining args. A non-zero exit is returned
// as an error that includes the command's stderr.
func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", argv[0], err)
	}
	return out, nil
}

// CommandSource reads the inventory by running an external command whose
// output is the interface table.
type CommandSource struct {
	runner    Runner
	fetchArgs []string
	probeArgs []string
}

// NewCommandSource creates a CommandSource. An empty fetchArgs selects
// DefaultInventoryCommand. When probeArgs is empty, Probe runs the full
// inventory command and picks the matching row.
func NewCommandSource(runner Runner, fetchArgs, probeArgs []string) *CommandSource {
	if runner == nil {
		runner = ExecRunner{}
	}
	if len(fetchArgs) == 0 {
		fetchArgs = DefaultInventoryCommand
	}
	return &CommandSource{runner: runner, fetchArgs: fetchArgs, probeArgs: probeArgs}
}

// Fetch runs the inventory command.
func (s *CommandSource) Fetch(ctx context.Context) ([]models.InterfaceRecord, error) {
	out, err := s.runner.Run(ctx, s.fetchArgs)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}
	return ParseTable(string(out))
}

// Probe looks up one interface by case-insensitive name.
func (s *CommandSource) Probe(ctx context.Context, name string) (*models.InterfaceRecord, error) {
	if len(s.probeArgs) == 0 {
		records, err := s.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return find(records, name), nil
	}

	argv := make([]string, len(s.probeArgs))
	for i, a := range s.probeArgs {
		argv[i] = strings.ReplaceAll(a, NamePlaceholder, name)
	}
	out, err := s.runner.Run(ctx, argv)
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", name, err)
	}
	records, err := ParseTable(string(out))
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", name, err)
	}
	return find(records, name), nil
}
