// Command otpdelete deletes one voucher through the console's code-confirmed
// flow: it requests a code for --email, reads the code from stdin and submits it.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/voucher-console/internal/client"
	"github.com/voucher-console/internal/client/flow"
	"github.com/voucher-console/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:   "otpdelete",
		Usage:  "Delete a voucher after confirming an emailed code",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "console API base URL",
				Value:   "http://localhost:3000",
				EnvVars: []string{"CONSOLE_API_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token, when the API requires one",
				EnvVars: []string{"CONSOLE_TOKEN"},
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "address that receives the code",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "item type: cash-voucher or cheque-voucher",
				Value: string(domain.ItemCashVoucher),
			},
			&cli.StringFlag{
				Name:     "id",
				Usage:    "item id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "display name used in the email (defaults to the id)",
			},
		},
		Action: func(cCtx *cli.Context) error {
			return deleteItem(cCtx, in, out)
		},
	}
}

func deleteItem(cCtx *cli.Context, in io.Reader, out io.Writer) error {
	itemType := domain.ItemType(cCtx.String("type"))
	if _, ok := itemType.Resource(); !ok {
		return fmt.Errorf("unknown item type %q", itemType)
	}
	item := flow.Item{Type: itemType, ID: cCtx.String("id"), Name: cCtx.String("name")}
	if item.Name == "" {
		item.Name = item.ID
	}

	var opts []client.Option
	if token := cCtx.String("token"); token != "" {
		opts = append(opts, client.WithBearer(token))
	}
	ctrl := flow.New(client.New(cCtx.String("api"), opts...), item, func() {
		fmt.Fprintf(out, "%s %s deleted.\n", item.Type.Label(), item.ID)
	})
	return run(cCtx.Context, ctrl, cCtx.String("email"), in, out)
}

// run drives ctrl from line input: a code submits it, "r" resends, "q" cancels.
func run(ctx context.Context, ctrl *flow.Controller, email string, in io.Reader, out io.Writer) error {
	if err := ctrl.RequestCode(ctx, email); err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	fmt.Fprintf(out, "Code sent to %s. Enter it (r = resend, q = cancel): ", email)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "q":
			return ctrl.Cancel()
		case "r":
			if err := ctrl.RequestCode(ctx, email); err != nil {
				if errors.Is(err, flow.ErrCooldown) {
					fmt.Fprintf(out, "Resend available in %ds: ", int(ctrl.Cooldown().Round(time.Second).Seconds()))
					continue
				}
				return fmt.Errorf("resend code: %w", err)
			}
			fmt.Fprint(out, "New code sent: ")
			continue
		}
		if err := ctrl.SetCode(line); err != nil {
			return err
		}
		err := ctrl.Submit(ctx)
		if err == nil {
			return nil
		}
		fmt.Fprintf(out, "%v. Try again: ", err)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ctrl.Cancel()
}
