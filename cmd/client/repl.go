package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"signals-client/internal/model"
	"signals-client/internal/reconcile"
	"signals-client/internal/service"
	"signals-client/internal/session"
	"signals-client/internal/signal"
)

// repl is the line-oriented command surface of the client. It only
// dispatches to the services; all behavior lives in the engine packages.
type repl struct {
	ctx      context.Context
	session  *session.Store
	auth     *service.AuthService
	admin    *service.AdminService
	registry *signal.Registry
	loop     *reconcile.Loop
}

func (r *repl) run(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, `Signals client ready. Type "help" for commands.`)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		r.dispatch(out, fields[0], fields[1:], scanner)
	}
}

func (r *repl) dispatch(out io.Writer, cmd string, args []string, scanner *bufio.Scanner) {
	var err error
	switch cmd {
	case "help":
		r.printHelp(out)
	case "status":
		r.printStatus(out)
	case "login":
		err = r.login(out, args)
	case "register":
		err = r.register(args)
	case "logout":
		r.loop.Stop()
		err = r.auth.Logout()
	case "signal":
		err = r.requestSignal(out, args)
	case "users":
		err = r.listUsers(out)
	case "update":
		err = r.updateUser(args)
	case "ban":
		err = r.banUser(args)
	case "unban":
		err = r.unbanUser(args)
	case "delete":
		err = r.deleteUser(out, args, scanner)
	default:
		fmt.Fprintf(out, "Unknown command %q, try \"help\"\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func (r *repl) printHelp(out io.Writer) {
	fmt.Fprintln(out, `Commands:
  status                          show session state
  login <username> <password>
  register <username> <password> [referral_code]
  logout
  signal <standard|premium>       request a coefficient recommendation
  users                           list directory users (admin)
  update <id> <balance> <refs>    overwrite a user's counters (admin)
  ban <id> <reason...>            ban a user (admin)
  unban <id>                      unban a user (admin)
  delete <id>                     delete a user, asks to confirm (admin)
  quit`)
}

func (r *repl) printStatus(out io.Writer) {
	if r.session.IsAdmin() {
		fmt.Fprintln(out, "Session: admin")
		return
	}
	identity, ok := r.session.Identity()
	if !ok {
		fmt.Fprintln(out, "Session: not authenticated")
		return
	}
	fmt.Fprintf(out, "Session: %s (id %d), balance %.2f, referrals %d\n",
		identity.Username, identity.ID, identity.Balance, identity.ReferralCount)
}

func (r *repl) login(out io.Writer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: login <username> <password>")
	}

	state, err := r.auth.Login(r.ctx, args[0], args[1])
	if err != nil {
		return err
	}

	switch state {
	case session.StateUser:
		r.loop.Start(r.ctx)
	case session.StateAdmin:
		if _, err := r.admin.ListUsers(r.ctx); err != nil {
			fmt.Fprintf(out, "Warning: could not load directory: %v\n", err)
		}
	}
	return nil
}

func (r *repl) register(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: register <username> <password> [referral_code]")
	}
	referralCode := ""
	if len(args) > 2 {
		referralCode = args[2]
	}

	state, err := r.auth.Register(r.ctx, args[0], args[1], referralCode)
	if err != nil {
		return err
	}
	if state == session.StateUser {
		r.loop.Start(r.ctx)
	}
	return nil
}

func (r *repl) requestSignal(out io.Writer, args []string) error {
	channel := model.ChannelStandard
	if len(args) > 0 {
		channel = model.Channel(args[0])
	}

	generator, ok := r.registry.Get(channel)
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}

	sig, err := generator.Request()
	if err != nil {
		var cooldown *signal.CooldownActiveError
		if errors.As(err, &cooldown) {
			fmt.Fprintf(out, "Wait %d seconds before the next signal\n", cooldown.Remaining)
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Recommended coefficient (%s): %.2fx\n", sig.Channel, sig.Value)
	return nil
}

func (r *repl) listUsers(out io.Writer) error {
	users, err := r.admin.ListUsers(r.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Users (%d):\n", len(users))
	for _, u := range users {
		banned := ""
		if u.IsBanned {
			banned = fmt.Sprintf("  BANNED (%s)", u.BanReason)
		}
		fmt.Fprintf(out, "  %d  %-20s balance %.2f  referrals %d%s\n",
			u.ID, u.Username, u.Balance, u.ReferralCount, banned)
	}
	return nil
}

func (r *repl) updateUser(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: update <id> <balance> <referrals>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q", args[0])
	}
	return r.admin.UpdateUser(r.ctx, id, args[1], args[2])
}

func (r *repl) banUser(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ban <id> <reason...>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q", args[0])
	}
	return r.admin.BanUser(r.ctx, id, strings.Join(args[1:], " "))
}

func (r *repl) unbanUser(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: unban <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q", args[0])
	}
	return r.admin.UnbanUser(r.ctx, id)
}

func (r *repl) deleteUser(out io.Writer, args []string, scanner *bufio.Scanner) error {
	if len(args) < 1 {
		return errors.New("usage: delete <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q", args[0])
	}

	fmt.Fprintf(out, "Delete user %d? [y/N] ", id)
	confirmed := false
	if scanner.Scan() {
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		confirmed = answer == "y" || answer == "yes"
	}
	if !confirmed {
		fmt.Fprintln(out, "Cancelled")
		return nil
	}

	return r.admin.DeleteUser(r.ctx, id, true)
}
