package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

var errUsage = errors.New("usage")

var commandHelp = []string{
	"ls [folder-id]                          list the current or given folder",
	"cd <folder-id> | .. | /                 change folder",
	"mkdir <name>                            create a folder here",
	"put <local-path> [name]                 upload a file here",
	"get <id>                                download a file",
	"url <id>                                print a signed download URL",
	"mv <id> <new-name>                      rename",
	"rm <id>                                 delete a file or empty folder",
	"search <term>                           find by name",
	"info                                    storage usage",
	"share <file|folder> <id> <email> [perm] share with a user",
	"link <file|folder> <id> [perm] [-p]     create a share link, -p asks for a password",
	"open <token>                            show what a share link points at",
	"fetch <token>                           download the file behind a share link",
	"shared                                  items shared with you",
	"grants <id>                             grants on one of your entries",
	"revoke <grant-id>                       revoke a grant",
	"exit | quit",
}

// runREPL reads commands from scanner until EOF or exit/quit and dispatches
// them to a.exec. Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a *App, scanner *bufio.Scanner) {
	for {
		fmt.Fprintf(a.out, "gdrive %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]
		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(a.out, "Bye!")
			return
		}

		if err := a.exec(ctx, cmd, args); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintln(a.out, "Usage:", strings.TrimPrefix(err.Error(), "usage: "))
				continue
			}
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// exec runs one command with the configured request timeout.
func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	switch cmd {
	case "help":
		for _, line := range commandHelp {
			fmt.Fprintln(a.out, "  "+line)
		}
		return nil
	case "ls", "l", "list":
		return a.list(ctx, args)
	case "cd":
		return a.cd(ctx, args)
	case "mkdir":
		return a.mkdir(ctx, args)
	case "put":
		return a.put(ctx, args)
	case "get":
		return a.get(ctx, args)
	case "url":
		return a.url(ctx, args)
	case "mv":
		return a.rename(ctx, args)
	case "rm":
		return a.remove(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "info":
		return a.info(ctx)
	case "share":
		return a.share(ctx, args)
	case "link":
		return a.link(ctx, args)
	case "open":
		return a.open(ctx, args)
	case "fetch":
		return a.fetch(ctx, args)
	case "shared":
		return a.shared(ctx)
	case "grants":
		return a.grants(ctx, args)
	case "revoke":
		return a.revoke(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}
