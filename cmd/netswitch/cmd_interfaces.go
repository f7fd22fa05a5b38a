package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/HerbHall/netswitch/internal/config"
	"github.com/HerbHall/netswitch/internal/enrich"
	"github.com/HerbHall/netswitch/internal/linkstate"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// subcommands are one-shot operations that run without the server.
var subcommands = map[string]func([]string){
	"list":       runList,
	"enable":     func(args []string) { runAdmin("enable", true, args) },
	"disable":    func(args []string) { runAdmin("disable", false, args) },
	"connect":    func(args []string) { runConnection("connect", true, args) },
	"disconnect": func(args []string) { runConnection("disconnect", false, args) },
}

func loadSettings(configPath string) linkstate.Settings {
	v, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	s, err := linkstate.LoadSettings(config.New(v).Sub("plugins." + linkstate.Name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return s
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := loadSettings(*configFile)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	records, err := linkstate.NewInventory(s).Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	records = enrich.New(zap.NewNop()).Enrich(ctx, records)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADMIN\tSTATE\tTYPE\tSPEED\tMAC\tDESCRIPTION")
	for _, r := range records {
		speed := ""
		if r.Speed > 0 {
			speed = fmt.Sprintf("%d Mbps", r.Speed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Name, r.AdminState, r.OperState, r.Type, speed, r.MAC, r.Description)
	}
	_ = tw.Flush()
}

func runAdmin(name string, enable bool, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: netswitch %s [-config file] <interface>\n", name)
		os.Exit(2)
	}

	s := loadSettings(*configFile)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	iface := fs.Arg(0)
	if err := linkstate.NewExecutor(s.Backend).SetAdminState(ctx, iface, enable); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", name, iface)
}

func runConnection(name string, connect bool, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configFile := fs.String("config", "", "path to configuration file")
	profile := fs.String("profile", "", "wireless profile (SSID) to connect with")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: netswitch %s [-config file] [-profile name] <interface>\n", name)
		os.Exit(2)
	}

	s := loadSettings(*configFile)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	iface := fs.Arg(0)
	if err := linkstate.NewExecutor(s.Backend).SetConnectionState(ctx, iface, *profile, connect); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", name, iface)
}
