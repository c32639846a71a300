// cmd/bank/commands.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bankreport/internal/bank"
	"bankreport/internal/config"
	"bankreport/internal/logging"
	"bankreport/internal/storage"
)

var errUsage = errors.New("usage: bank <command> [flags]")

// cli 持有單次指令執行所需的狀態。
type cli struct {
	cfg    *config.Config
	bank   *bank.Bank
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	// mutates 為 true 時，執行成功後保存快照。
	mutates bool
	run     func(c *cli, args []string) error
}

var commands = map[string]command{
	"summary":      {run: (*cli).summary},
	"interest":     {run: (*cli).interest},
	"first":        {run: (*cli).first},
	"count":        {run: (*cli).count},
	"customers":    {run: (*cli).customers},
	"accounts":     {run: (*cli).accounts},
	"logs":         {run: (*cli).logs},
	"add-customer": {mutates: true, run: (*cli).addCustomer},
	"open-account": {mutates: true, run: (*cli).openAccount},
	"deposit":      {mutates: true, run: (*cli).deposit},
	"withdraw":     {mutates: true, run: (*cli).withdraw},
	"transfer":     {mutates: true, run: (*cli).transfer},
}

// run 載入狀態、執行單一指令，必要時保存快照。
func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errUsage
	}
	name, rest := args[0], args[1:]
	if name == "migrate" {
		return runMigrate(cfg, rest, stdout)
	}
	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:    cfg.Backend,
		DataFile:   cfg.DataFile,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	b := bank.NewBank()
	if err := b.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	c := &cli{cfg: cfg, bank: b, stdout: stdout, stderr: stderr}
	if err := cmd.run(c, rest); err != nil {
		return err
	}
	if !cmd.mutates {
		return nil
	}

	out, err := b.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot bank: %w", err)
	}
	if err := store.Save(ctx, out); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	log.WithFields(log.Fields{
		logging.FieldComponent: logging.ComponentCLI,
		logging.FieldCommand:   name,
		logging.FieldBackend:   cfg.Backend,
		logging.FieldCount:     b.NumberOfCustomers(),
	}).Info("state persisted")
	return nil
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands)+1)
	for n := range commands {
		names = append(names, n)
	}
	names = append(names, "migrate")
	sort.Strings(names)
	fmt.Fprintln(w, errUsage.Error())
	fmt.Fprintln(w, "commands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// required 檢查必要的字串旗標皆已提供。
func required(fs *flag.FlagSet, values map[string]string) error {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if values[n] == "" {
			return fmt.Errorf("%s: missing -%s", fs.Name(), n)
		}
	}
	return nil
}

func parseAmount(flagName, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -%s %q: %w", flagName, s, err)
	}
	return d, nil
}

// --- reports ---

func (c *cli) summary(args []string) error {
	if err := c.flags("summary").Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, c.bank.CustomerSummary())
	return nil
}

func (c *cli) interest(args []string) error {
	fs := c.flags("interest")
	days := fs.Int("days", c.cfg.InterestDays, "number of days to accrue interest for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, c.bank.TotalInterestPaid(*days).StringFixed(2))
	return nil
}

func (c *cli) first(args []string) error {
	if err := c.flags("first").Parse(args); err != nil {
		return err
	}
	name, ok := c.bank.FirstCustomerName()
	if !ok {
		name = bank.NoCustomersFound
	}
	fmt.Fprintln(c.stdout, name)
	return nil
}

func (c *cli) count(args []string) error {
	if err := c.flags("count").Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, c.bank.NumberOfCustomers())
	return nil
}

func (c *cli) customers(args []string) error {
	if err := c.flags("customers").Parse(args); err != nil {
		return err
	}
	for _, v := range c.bank.Customers() {
		fmt.Fprintf(c.stdout, "%s\t%s\t%d\n", v.ID, v.Name, v.Accounts)
	}
	return nil
}

func (c *cli) accounts(args []string) error {
	fs := c.flags("accounts")
	customerID := fs.String("customer", "", "customer id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"customer": *customerID}); err != nil {
		return err
	}
	views, err := c.bank.Accounts(*customerID)
	if err != nil {
		return err
	}
	for _, v := range views {
		fmt.Fprintf(c.stdout, "%s\t%s\t%s\n", v.ID, v.Kind, v.Balance.StringFixed(2))
	}
	return nil
}

func (c *cli) logs(args []string) error {
	fs := c.flags("logs")
	customerID := fs.String("customer", "", "customer id")
	accountID := fs.String("account", "", "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"customer": *customerID, "account": *accountID}); err != nil {
		return err
	}
	entries, err := c.bank.Logs(*customerID, *accountID)
	if err != nil {
		return err
	}
	for _, l := range entries {
		fmt.Fprintf(c.stdout, "%s\t%s\t%s\t%s\t%s\n",
			l.Time.Format(time.RFC3339), l.Direction, l.Amount.StringFixed(2), l.CounterID, l.Note)
	}
	return nil
}

// --- mutations ---

func (c *cli) addCustomer(args []string) error {
	fs := c.flags("add-customer")
	name := fs.String("name", "", "customer name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"name": *name}); err != nil {
		return err
	}
	cust := bank.NewCustomer(*name)
	c.bank.AddCustomer(cust)
	fmt.Fprintln(c.stdout, cust.ID())
	return nil
}

func (c *cli) openAccount(args []string) error {
	fs := c.flags("open-account")
	customerID := fs.String("customer", "", "customer id")
	kind := fs.String("kind", "checking", "account kind label")
	ruleKind := fs.String("rule", "", "interest rule: simple|compound (empty for none)")
	rateStr := fs.String("rate", "0", "annual interest rate, e.g. 0.05")
	initialStr := fs.String("initial", "0", "initial balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"customer": *customerID}); err != nil {
		return err
	}
	initial, err := parseAmount("initial", *initialStr)
	if err != nil {
		return err
	}

	var rule bank.InterestRule
	if *ruleKind != "" {
		rate, err := parseAmount("rate", *rateStr)
		if err != nil {
			return err
		}
		if rule, err = bank.RuleFromSpec(*ruleKind, rate); err != nil {
			return err
		}
	}

	v, err := c.bank.OpenAccount(*customerID, *kind, rule, initial)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		logging.FieldComponent: logging.ComponentCLI,
		logging.FieldCustomer:  *customerID,
		logging.FieldAccount:   v.ID,
	}).Debug("account opened")
	fmt.Fprintln(c.stdout, v.ID)
	return nil
}

func (c *cli) deposit(args []string) error {
	return c.move("deposit", args, c.bank.Deposit)
}

func (c *cli) withdraw(args []string) error {
	return c.move("withdraw", args, c.bank.Withdraw)
}

// move 處理存款與提款共用的旗標解析，成功後印出新餘額。
func (c *cli) move(name string, args []string, fn func(customerID, accountID string, amt decimal.Decimal) (bank.AccountView, error)) error {
	fs := c.flags(name)
	customerID := fs.String("customer", "", "customer id")
	accountID := fs.String("account", "", "account id")
	amountStr := fs.String("amount", "", "amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"customer": *customerID, "account": *accountID, "amount": *amountStr}); err != nil {
		return err
	}
	amt, err := parseAmount("amount", *amountStr)
	if err != nil {
		return err
	}
	v, err := fn(*customerID, *accountID, amt)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, v.Balance.StringFixed(2))
	return nil
}

func (c *cli) transfer(args []string) error {
	fs := c.flags("transfer")
	customerID := fs.String("customer", "", "customer id")
	from := fs.String("from", "", "source account id")
	to := fs.String("to", "", "target account id")
	amountStr := fs.String("amount", "", "amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"customer": *customerID, "from": *from, "to": *to, "amount": *amountStr}); err != nil {
		return err
	}
	amt, err := parseAmount("amount", *amountStr)
	if err != nil {
		return err
	}
	return c.bank.Transfer(*customerID, *from, *to, amt)
}

// --- schema ---

// runMigrate 管理 SQLite schema：up、down [-steps N]、version。
func runMigrate(cfg *config.Config, args []string, stdout io.Writer) error {
	if cfg.Backend != config.BackendSQLite {
		return fmt.Errorf("migrate requires the %s backend, got %q", config.BackendSQLite, cfg.Backend)
	}
	if len(args) == 0 {
		return errors.New("usage: bank migrate up|down|version")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	switch args[0] {
	case "up":
		if err := storage.RunMigrations(cfg.SQLitePath); err != nil {
			return err
		}
	case "down":
		fs := flag.NewFlagSet("migrate down", flag.ContinueOnError)
		steps := fs.Int("steps", 1, "number of migrations to roll back")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := storage.MigrateDown(cfg.SQLitePath, *steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	version, dirty, err := storage.MigrationVersion(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	fmt.Fprintf(stdout, "version %d dirty=%t\n", version, dirty)
	return nil
}
