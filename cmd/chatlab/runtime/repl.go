package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harunnryd/chatlab/internal/chat"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/google/shlex"
)

var errExit = errors.New("exit requested")

type REPL struct {
	session *chat.Session
	reader  *bufio.Reader
	out     io.Writer
	stream  bool
}

func NewREPL(session *chat.Session, in io.Reader, out io.Writer, stream bool) *REPL {
	return &REPL{
		session: session,
		reader:  bufio.NewReader(in),
		out:     out,
		stream:  stream,
	}
}

func (r *REPL) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "chatlab interactive session. Type '/help' for commands, '/exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := r.readLine(ctx); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, errExit) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *REPL) readLine(ctx context.Context) error {
	fmt.Fprint(r.out, "> ")
	text, err := r.reader.ReadString('\n')
	if err != nil && (text == "" || !errors.Is(err, io.EOF)) {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return err
	}

	if strings.HasPrefix(text, "/") {
		return r.command(text)
	}

	if r.stream {
		if _, sendErr := r.session.SendStream(ctx, text, r.out); sendErr != nil {
			return sendErr
		}
		fmt.Fprintln(r.out)
		return err
	}

	resp, sendErr := r.session.Send(ctx, text)
	if sendErr != nil {
		return sendErr
	}
	fmt.Fprintln(r.out, resp.Text())
	return err
}

func (r *REPL) command(line string) error {
	fields, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "/exit", "/quit":
		return errExit
	case "/help":
		fmt.Fprintln(r.out, "/system [prompt]  /temperature <0..1>  /stop [seq...]  /prefill [text]  /stream [on|off]  /history  /reset  /exit")
	case "/system":
		r.session.System = strings.Join(args, " ")
		fmt.Fprintf(r.out, "system prompt set (%d chars)\n", len(r.session.System))
	case "/temperature":
		if len(args) != 1 {
			return fmt.Errorf("usage: /temperature <0..1>")
		}
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil || t < 0 || t > 1 {
			return fmt.Errorf("temperature must be a number in [0,1]")
		}
		r.session.Temperature = contract.Float(t)
		fmt.Fprintf(r.out, "temperature %.2f\n", t)
	case "/stop":
		r.session.StopSequences = args
		fmt.Fprintf(r.out, "stop sequences %q\n", args)
	case "/prefill":
		r.session.Prefill(strings.Join(args, " "))
	case "/stream":
		switch {
		case len(args) == 0:
			r.stream = !r.stream
		case args[0] == "on":
			r.stream = true
		case args[0] == "off":
			r.stream = false
		default:
			return fmt.Errorf("usage: /stream [on|off]")
		}
		fmt.Fprintf(r.out, "streaming %v\n", r.stream)
	case "/reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "history cleared")
	case "/history":
		for _, m := range r.session.History() {
			fmt.Fprintf(r.out, "[%s] %s\n", m.Role, m.Text())
		}
	default:
		return fmt.Errorf("unknown command %s", name)
	}
	return nil
}
