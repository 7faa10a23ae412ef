package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/target/storefront/internal/confirmation"
	"github.com/target/storefront/internal/domain/order"
)

const defaultOrderWait = 15 * time.Second

var errNotLoggedIn = errors.New("not logged in; run `storefront-cli login` first")

func newFlagSet(cmdCtx *commandContext, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Stderr)
	return fs
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "login")
	username := fs.String("username", "", "account username (prompted when omitted)")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	in := bufio.NewReader(cmdCtx.Stdin)
	if strings.TrimSpace(*username) == "" {
		v, err := prompt(cmdCtx.Stdout, in, "Username: ")
		if err != nil {
			return err
		}
		*username = v
	}
	if *password == "" {
		v, err := promptSecret(cmdCtx.Stdout, cmdCtx.Stdin, in, "Password: ")
		if err != nil {
			return err
		}
		*password = v
	}
	if strings.TrimSpace(*username) == "" || *password == "" {
		return fmt.Errorf("%w: username and password are required", errUsage)
	}

	res, err := cmdCtx.Services.ShopAPI.Login(cmdCtx.Ctx, strings.TrimSpace(*username), *password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := cmdCtx.Services.Session.Login(cmdCtx.Ctx, res.Token, res.User); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return writef(cmdCtx.Stdout, "Signed in as %s\n", res.User.Username)
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	if err := writef(w, "%s", label); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Terminal hooks; replaced in tests.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

type fdReader interface {
	Fd() uintptr
}

// promptSecret reads a line without echo when stdin is a terminal and falls
// back to a plain line read for pipes and files.
func promptSecret(w io.Writer, stdin io.Reader, in *bufio.Reader, label string) (string, error) {
	f, ok := stdin.(fdReader)
	if !ok || !isTerminal(int(f.Fd())) {
		return prompt(w, in, label)
	}
	if err := writef(w, "%s", label); err != nil {
		return "", err
	}
	secret, err := readPassword(int(f.Fd()))
	// The terminal swallowed the user's newline.
	if werr := writeln(w, ""); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

func runLogout(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "logout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	cmdCtx.Services.Session.Logout(cmdCtx.Ctx)
	return writeln(cmdCtx.Stdout, "Signed out")
}

type whoamiOutput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
	ID       int64  `json:"id"`
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "whoami")
	asJSON := fs.Bool("json", false, "print the user as JSON")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	sess := cmdCtx.Services.Session.Snapshot()
	if !sess.IsAuthenticated() || sess.User == nil {
		return errNotLoggedIn
	}
	u := sess.User

	if *asJSON {
		enc := json.NewEncoder(cmdCtx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(whoamiOutput{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff})
	}

	w := tabwriter.NewWriter(cmdCtx.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "Username:\t%s\n", u.Username); err != nil {
		return err
	}
	if err := writef(w, "Email:\t%s\n", u.Email); err != nil {
		return err
	}
	if err := writef(w, "Staff:\t%t\n", u.IsStaff); err != nil {
		return err
	}
	return w.Flush()
}

func runOrder(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "order")
	wait := fs.Duration("wait", defaultOrderWait, "how long to wait for the order to load")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: order requires exactly one order id", errUsage)
	}

	ctrl := confirmation.NewController(cmdCtx.Ctx, confirmation.Options{
		Fetcher: cmdCtx.Services.ShopAPI,
		Logger:  cmdCtx.Logger,
		Metrics: cmdCtx.Services.Metrics,
	})
	defer ctrl.Close()

	ctrl.Update(cmdCtx.Services.Session.Token(), fs.Arg(0))

	waitCtx, cancel := context.WithTimeout(cmdCtx.Ctx, *wait)
	defer cancel()
	m := ctrl.Wait(waitCtx)

	switch m.State {
	case confirmation.StateLoading:
		return fmt.Errorf("order still loading after %s", *wait)
	case confirmation.StateError:
		return errors.New(m.Message)
	}
	return printOrderDetails(cmdCtx.Stdout, m)
}

func printOrderDetails(out io.Writer, m confirmation.Model) error {
	if err := writeln(out, m.Title()); err != nil {
		return err
	}
	if err := writeln(out, m.Description()); err != nil {
		return err
	}
	if err := writeln(out, ""); err != nil {
		return err
	}
	o := m.Order
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Order", fmt.Sprintf("#%d", o.ID)},
		{"Product", o.ProductName},
		{"Price", formatPrice(*o)},
		{"Card", "•••• " + o.CardLastFour},
		{"Status", o.Status},
		{"Placed", formatCreated(*o)},
	}
	for _, row := range rows {
		if err := writef(w, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runOrders(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "orders")
	all := fs.Bool("all", false, "list every customer's orders (staff only)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	sess := cmdCtx.Services.Session.Snapshot()
	if !sess.IsAuthenticated() {
		return errNotLoggedIn
	}

	var (
		orders []order.Order
		err    error
	)
	if *all {
		if sess.User == nil || !sess.User.IsStaff {
			return errors.New("listing all orders requires a staff account")
		}
		orders, err = cmdCtx.Services.ShopAPI.ListAllOrders(cmdCtx.Ctx, sess.Token)
	} else {
		orders, err = cmdCtx.Services.ShopAPI.ListOrders(cmdCtx.Ctx, sess.Token)
	}
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	if len(orders) == 0 {
		return writeln(cmdCtx.Stdout, "No orders yet.")
	}

	w := tabwriter.NewWriter(cmdCtx.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tSTATUS\tPRODUCT\tPRICE\tPLACED"); err != nil {
		return err
	}
	for _, o := range orders {
		if err := writef(w, "%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.Status, o.ProductName, formatPrice(o), formatCreated(o)); err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatPrice(o order.Order) string {
	p, err := o.Price()
	if err != nil {
		return o.ProductPrice
	}
	return fmt.Sprintf("$%.2f", p)
}

func formatCreated(o order.Order) string {
	t, err := o.Created()
	if err != nil {
		return o.CreatedAt
	}
	return t.Local().Format("2006-01-02 15:04")
}
