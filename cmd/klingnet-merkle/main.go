// klingnet-merkle computes and checks the merkle root of an ordered
// transaction set.
//
// Usage:
//
//	klingnet-merkle [options] root           Print the merkle root
//	klingnet-merkle [options] verify <root>  Compare with a claimed root
//	klingnet-merkle --help                   Show help
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Klingon-tech/klingnet-merkle/config"
	"github.com/Klingon-tech/klingnet-merkle/internal/audit"
	"github.com/Klingon-tech/klingnet-merkle/internal/log"
	"github.com/Klingon-tech/klingnet-merkle/internal/txset"
	"github.com/Klingon-tech/klingnet-merkle/pkg/merkle"
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// demoTransactions is the sample block used by the demo command.
var demoTransactions = []string{
	"Sender: Bob; Receiver: Alice; Amount: 465",
	"Sender: Bella; Receiver: Lily, Amount: 24",
	"Sender: Jake; Receiver: Allie, Amount: 987",
	"Sender: Bella; Receiver: Jake, Amount: 5",
}

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Help {
		config.PrintUsage()
		return
	}
	if flags.Version {
		fmt.Printf("klingnet-merkle version %s\n", config.Version)
		return
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}
	color.NoColor = color.NoColor || !cfg.Output.Color

	if len(flags.Args) == 0 {
		config.PrintUsage()
		os.Exit(1)
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]
	log.CLI.Debug().Str("command", cmd).Strs("args", cmdArgs).Msg("Dispatch")

	switch cmd {
	case "root":
		cmdRoot(cfg)
	case "leaves":
		cmdLeaves(cfg)
	case "verify":
		cmdVerify(cfg, cmdArgs)
	case "check":
		cmdCheck(cfg)
	case "demo":
		cmdDemo()
	case "init":
		cmdInit(cmdArgs)
	case "help":
		config.PrintUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		config.PrintUsage()
		os.Exit(1)
	}
}

// ── input ───────────────────────────────────────────────────────────────

func loadTree(cfg *config.Config) *merkle.Tree {
	format := txset.Format(cfg.Input.Format)
	if (cfg.Input.File == "" || cfg.Input.File == txset.Stdin) && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Enter transactions, one per line. Finish with Ctrl-D.")
	}

	txs, err := txset.Load(cfg.Input.File, format)
	if err != nil {
		fatal("read transactions: %v", err)
	}

	tree, err := audit.Build(txs)
	if errors.Is(err, merkle.ErrEmptyInput) {
		fatal("no transactions; root hash not calculated")
	}
	if err != nil {
		fatal("%v", err)
	}
	return tree
}

// ── root ────────────────────────────────────────────────────────────────

func cmdRoot(cfg *config.Config) {
	tree := loadTree(cfg)
	printSummary(tree)
}

func printSummary(tree *merkle.Tree) {
	fmt.Printf("Transactions: %d\n", tree.LeafCount())
	fmt.Printf("Levels:       %d\n", tree.Levels())
	fmt.Printf("Merkle Root:  %s\n", tree.RootHash())
}

// ── leaves ──────────────────────────────────────────────────────────────

func cmdLeaves(cfg *config.Config) {
	tree := loadTree(cfg)
	for i, leaf := range tree.Leaves() {
		fmt.Printf("[%d] %s  %q\n", i, leaf.Digest(), leaf.Payload())
	}
	fmt.Printf("Merkle Root:  %s\n", tree.RootHash())
}

// ── verify ──────────────────────────────────────────────────────────────

func cmdVerify(cfg *config.Config, args []string) {
	claimed, ok := cfg.ExpectedRoot()
	if len(args) > 0 {
		h, err := types.HexToHash(args[0])
		if err != nil {
			fatal("claimed root: %v", err)
		}
		claimed, ok = h, true
	}
	if !ok {
		fatal("Usage: klingnet-merkle verify <root-hex> (or set --expect)")
	}

	tree := loadTree(cfg)
	fmt.Printf("Claimed Root:  %s\n", claimed)
	fmt.Printf("Computed Root: %s\n", tree.RootHash())

	if err := audit.Compare(tree, claimed); err != nil {
		printVerdict(false)
		os.Exit(1)
	}
	printVerdict(true)
}

// ── check ───────────────────────────────────────────────────────────────

func cmdCheck(cfg *config.Config) {
	tree := loadTree(cfg)
	runCheck(tree)
}

func runCheck(tree *merkle.Tree) {
	printSummary(tree)
	if err := audit.CrossCheck(tree); err != nil {
		log.CLI.Error().Err(err).Msg("Cross-check failed")
		printVerdict(false)
		os.Exit(1)
	}
	printVerdict(true)
}

// ── demo ────────────────────────────────────────────────────────────────

func cmdDemo() {
	txs := make([][]byte, len(demoTransactions))
	for i, tx := range demoTransactions {
		txs[i] = []byte(tx)
		fmt.Printf("Transaction: %s\n", tx)
	}
	fmt.Println()

	tree, err := audit.Build(txs)
	if err != nil {
		fatal("%v", err)
	}
	runCheck(tree)
}

// ── init ────────────────────────────────────────────────────────────────

func cmdInit(args []string) {
	path := config.DefaultConfigFile
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// ── Output helpers ──────────────────────────────────────────────────────

func printVerdict(ok bool) {
	if ok {
		color.New(color.FgGreen, color.Bold).Println("Verified")
		return
	}
	color.New(color.FgRed, color.Bold).Println("Not Verified")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
