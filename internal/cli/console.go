package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/skphelp/internal/presentation/tui"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
)

// Console commands besides option numbers.
const (
	cmdBack     = "b"
	cmdRestart  = "r"
	cmdContacts = "c"
	cmdQuit     = "q"
)

const msgInvalidChoice = "Pilihan tidak dikenali. Ketik nomor opsi, atau b/r/c/q."

var errQuit = errors.New("quit")

// Console walks a troubleshooting session over a line-based terminal.
type Console struct {
	svc    *troubleshoot.Service
	in     *bufio.Reader
	out    io.Writer
	render tui.Renderer
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithRenderer sets the markdown renderer used for questions and solutions.
func WithRenderer(r tui.Renderer) ConsoleOption {
	return func(c *Console) {
		c.render = r
	}
}

// NewConsole creates a Console reading commands from in and writing to out.
func NewConsole(svc *troubleshoot.Service, in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		svc:    svc,
		in:     bufio.NewReader(in),
		out:    out,
		render: tui.Plain,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run resumes or starts sessionID and loops until the user quits or input ends.
// It returns the last view shown. Quitting is not an error; end of input is io.EOF.
func (c *Console) Run(ctx context.Context, sessionID string) (*troubleshoot.View, error) {
	view, err := c.svc.Open(ctx, sessionID)
	if err != nil {
		if view == nil {
			return nil, err
		}
		c.notice(err)
	}

	redraw := true
	for {
		if redraw {
			c.show(view)
		}
		redraw = true

		line, err := c.readLine(ctx)
		if err != nil {
			return view, err
		}

		next, err := c.apply(ctx, view, line)
		switch {
		case errors.Is(err, errQuit):
			return view, nil
		case err == nil && next == nil:
			redraw = false
		case err == nil:
			view = next
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange):
			fmt.Fprintln(c.out, msgInvalidChoice)
			redraw = false
		case next != nil:
			c.notice(err)
			view = next
		default:
			return view, err
		}
	}
}

// apply runs one command against view. A nil view with a nil error means
// nothing changed and the screen does not need redrawing.
func (c *Console) apply(ctx context.Context, view *troubleshoot.View, line string) (*troubleshoot.View, error) {
	switch strings.ToLower(line) {
	case "":
		return nil, nil
	case cmdQuit, "quit", "exit":
		return nil, errQuit
	case cmdBack:
		return c.svc.Back(ctx, view.SessionID)
	case cmdRestart:
		return c.svc.Reset(ctx, view.SessionID)
	case cmdContacts:
		c.showContacts(c.svc.Contacts().All())
		return nil, nil
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return nil, err
	}
	options := view.Node.Options
	if n < 1 || n > len(options) {
		return nil, &domain.InvalidTransitionError{From: view.Node.ID, To: line}
	}
	return c.svc.Advance(ctx, view.SessionID, options[n-1].NextID)
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, "> ")
	text, err := c.in.ReadString('\n')
	if err != nil && (text == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Console) show(view *troubleshoot.View) {
	fmt.Fprintf(c.out, "\n%s\n", tui.ProgressBar(view.Progress))

	var md strings.Builder
	if view.IsTerminal() {
		fmt.Fprintf(&md, "### %s\n\n%s\n", view.Node.Text, view.Node.Solution)
	} else {
		fmt.Fprintf(&md, "## %s\n", view.Node.Text)
	}
	c.print(md.String())

	for i, opt := range view.Node.Options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, opt.Label)
	}
	if len(view.Contacts) > 0 {
		c.showContacts(view.Contacts)
	}

	hints := []string{}
	if len(view.Node.Options) > 0 {
		hints = append(hints, "[nomor] pilih")
	}
	if view.CanGoBack {
		hints = append(hints, "b kembali")
	}
	hints = append(hints, "r ulang", "c kontak", "q keluar")
	fmt.Fprintf(c.out, "\n(%s)\n", strings.Join(hints, " · "))
}

func (c *Console) showContacts(contacts []domain.Contact) {
	var md strings.Builder
	md.WriteString("#### Kontak Helpdesk\n\n")
	for _, ct := range contacts {
		fmt.Fprintf(&md, "- **%s** (%s)\n", ct.Name, ct.Role)
		if link := ct.WhatsAppLink(); link != "" {
			fmt.Fprintf(&md, "  - WhatsApp: %s\n", link)
		}
		if ct.Email != "" {
			fmt.Fprintf(&md, "  - Email: %s\n", ct.Email)
		}
		if ct.Availability != "" {
			fmt.Fprintf(&md, "  - Jam layanan: %s\n", ct.Availability)
		}
	}
	c.print(md.String())
}

func (c *Console) print(markdown string) {
	out, err := c.render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprintln(c.out, strings.TrimSpace(out))
}

func (c *Console) notice(err error) {
	printSystemMessage(c.out, "Sesi dimulai ulang: %v", err)
}
