package cli

import (
	"bufio"
	"context"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	prompt(ctx context.Context)
	exec(ctx context.Context, name string, args []string)
	quit(ctx context.Context)
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from in, takes the first token as the command name and
// the rest as its arguments, and hands both to a. The loop exits on EOF or
// when the user types "exit" or "quit"; in both cases a.quit runs once.
// Which commands exist and whether they may run right now is up to a.
func runREPL(ctx context.Context, a execIface, in *bufio.Reader) {
	defer a.quit(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		a.prompt(ctx)

		line, err := in.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) > 0 {
			switch parts[0] {
			case "exit", "quit":
				return
			default:
				a.exec(ctx, parts[0], parts[1:])
			}
		}
		if err != nil {
			return
		}
	}
}
