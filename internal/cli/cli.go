// Package cli implements the ledger command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/envelope-zero/ledger/internal/ledger"
	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrUsage = errors.New("usage")

// App holds the components the commands work on.
type App struct {
	Store  *store.Store
	Engine *ledger.Engine
	Query  *ledger.Query
}

type command struct {
	usage string
	run   func(ctx context.Context, app App, args []string) (any, error)
}

var commands = map[string]command{
	"account":      {"account [-owner ID]", account},
	"category":     {"category -name NAME", category},
	"create":       {"create -account ID -name NAME [-user ID] [-description TEXT] [-budget AMOUNT] [-balance AMOUNT] [-at TIME]", create},
	"deposit":      {"deposit -envelope ID -amount AMOUNT [-user ID] [-description TEXT] [-comment TEXT] [-category ID] [-at TIME]", move(false)},
	"withdraw":     {"withdraw -envelope ID -amount AMOUNT [-user ID] [-description TEXT] [-comment TEXT] [-category ID] [-at TIME]", move(true)},
	"envelope":     {"envelope -envelope ID", envelope},
	"transactions": {"transactions -envelope ID", transactions},
	"transaction":  {"transaction -id FRIENDLY_ID", transaction},
	"reconcile":    {"reconcile -envelope ID", reconcile},
}

// Usage returns the usage of all commands.
func Usage() string {
	names := []string{"account", "category", "create", "deposit", "withdraw", "envelope", "transactions", "transaction", "reconcile"}

	var b strings.Builder
	b.WriteString("Usage: ledger COMMAND [FLAGS]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}

	return b.String()
}

// Run runs the command in args[0] and writes its result as JSON to out.
func Run(ctx context.Context, app App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command '%s'", ErrUsage, args[0])
	}

	result, err := cmd.run(ctx, app, args[1:])
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}

// parseUUID parses a required identifier flag.
func parseUUID(flagName, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: -%s is required", ErrUsage, flagName)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: -%s is not a valid id: %w", ErrUsage, flagName, err)
	}
	return id, nil
}

func parseDecimal(flagName, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: -%s is not a valid amount: %w", ErrUsage, flagName, err)
	}
	return d, nil
}

// parseTime parses the -at flag. Without a value, the current time is used.
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: -at must be an RFC 3339 time: %w", ErrUsage, err)
	}
	return t, nil
}

func account(ctx context.Context, app App, args []string) (any, error) {
	fs := newFlagSet("account")
	owner := fs.Uint64("owner", 1, "owner of the account")
	if err := parse(fs, args); err != nil {
		return nil, err
	}

	account := models.Account{OwnerID: *owner}
	err := app.Store.Atomic(ctx, func(tx *store.Tx) error {
		return tx.CreateAccount(&account)
	})
	return account, err
}

func category(ctx context.Context, app App, args []string) (any, error) {
	fs := newFlagSet("category")
	name := fs.String("name", "", "name of the category")
	if err := parse(fs, args); err != nil {
		return nil, err
	}

	category := models.Category{Name: *name}
	err := app.Store.Atomic(ctx, func(tx *store.Tx) error {
		return tx.CreateCategory(&category)
	})
	return category, err
}

type result struct {
	Envelope    models.Envelope    `json:"envelope"`
	Transaction models.Transaction `json:"transaction"`
}

func create(ctx context.Context, app App, args []string) (any, error) {
	fs := newFlagSet("create")
	accountID := fs.String("account", "", "id of the account")
	user := fs.Uint64("user", 1, "user creating the envelope")
	name := fs.String("name", "", "name of the envelope")
	description := fs.String("description", "", "description of the envelope")
	budget := fs.String("budget", "0", "budget of the envelope")
	balance := fs.String("balance", "", "initial balance, defaults to the budget")
	at := fs.String("at", "", "time of the creation")
	if err := parse(fs, args); err != nil {
		return nil, err
	}

	id, err := parseUUID("account", *accountID)
	if err != nil {
		return nil, err
	}

	b, err := parseDecimal("budget", *budget)
	if err != nil {
		return nil, err
	}

	var initial *decimal.Decimal
	if *balance != "" {
		d, err := parseDecimal("balance", *balance)
		if err != nil {
			return nil, err
		}
		initial = &d
	}

	now, err := parseTime(*at)
	if err != nil {
		return nil, err
	}

	e, t, err := app.Engine.Create(ctx, *user, now, id, *name, *description, b, initial)
	return result{e, t}, err
}

func move(withdraw bool) func(context.Context, App, []string) (any, error) {
	name := "deposit"
	if withdraw {
		name = "withdraw"
	}

	return func(ctx context.Context, app App, args []string) (any, error) {
		fs := newFlagSet(name)
		envelopeID := fs.String("envelope", "", "id of the envelope")
		user := fs.Uint64("user", 1, "user performing the operation")
		amount := fs.String("amount", "", "amount of money")
		description := fs.String("description", "", "description of the transaction")
		comment := fs.String("comment", "", "comment on the transaction")
		categoryID := fs.String("category", "", "id of the category")
		at := fs.String("at", "", "time of the operation")
		if err := parse(fs, args); err != nil {
			return nil, err
		}

		id, err := parseUUID("envelope", *envelopeID)
		if err != nil {
			return nil, err
		}

		a, err := parseDecimal("amount", *amount)
		if err != nil {
			return nil, err
		}

		now, err := parseTime(*at)
		if err != nil {
			return nil, err
		}

		opts := []ledger.TransactionOption{
			ledger.WithDescription(*description),
			ledger.WithComment(*comment),
		}

		if *categoryID != "" {
			c, err := parseUUID("category", *categoryID)
			if err != nil {
				return nil, err
			}
			opts = append(opts, ledger.WithCategory(c))
		}

		operation := app.Engine.Deposit
		if withdraw {
			operation = app.Engine.Withdraw
		}

		e, t, err := operation(ctx, id, *user, a, now, opts...)
		return result{e, t}, err
	}
}

// envelopeFlag parses the flags of commands that only take an envelope id.
func envelopeFlag(name string, args []string) (uuid.UUID, error) {
	fs := newFlagSet(name)
	envelopeID := fs.String("envelope", "", "id of the envelope")
	if err := parse(fs, args); err != nil {
		return uuid.Nil, err
	}

	return parseUUID("envelope", *envelopeID)
}

func envelope(ctx context.Context, app App, args []string) (any, error) {
	id, err := envelopeFlag("envelope", args)
	if err != nil {
		return nil, err
	}

	return app.Query.GetEnvelope(ctx, id)
}

func transactions(ctx context.Context, app App, args []string) (any, error) {
	id, err := envelopeFlag("transactions", args)
	if err != nil {
		return nil, err
	}

	return app.Query.ListTransactions(ctx, id)
}

func transaction(ctx context.Context, app App, args []string) (any, error) {
	fs := newFlagSet("transaction")
	friendlyID := fs.String("id", "", "friendly id of the transaction")
	if err := parse(fs, args); err != nil {
		return nil, err
	}

	if *friendlyID == "" {
		return nil, fmt.Errorf("%w: -id is required", ErrUsage)
	}

	return app.Query.GetTransaction(ctx, *friendlyID)
}

func reconcile(ctx context.Context, app App, args []string) (any, error) {
	id, err := envelopeFlag("reconcile", args)
	if err != nil {
		return nil, err
	}

	return app.Query.Reconcile(ctx, id)
}
