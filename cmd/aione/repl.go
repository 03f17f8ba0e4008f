package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/casualjim/aione"
	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/go-openapi/swag"
	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
)

const helpText = `Commands:
  /help                 show this help
  /config               show the active configuration
  /schema               show the configuration JSON schema
  /providers            list the known providers
  /models               list the models of the active provider
  /provider <id>        switch provider (resets the model to its default)
  /model <name>         select a model
  /key <api key>        set the API key
  /base-url <url>       override the endpoint, empty to use the provider default
  /temperature <0-2>    set the sampling temperature
  /max-tokens <n>       set the reply token limit
  /stream on|off        toggle streaming replies
  /reset                restore the default configuration
  /clear                forget the conversation
  /quit                 leave
Press Ctrl+C while a reply is being generated to cancel it.`

type dispatcher interface {
	SendMessage(context.Context, []messages.ChatMessage) aione.ChatResponse
	SendMessageStream(context.Context, []messages.ChatMessage, aione.ChunkFunc, aione.ErrorFunc)
	UpdateConfig()
	IsReady() bool
}

type repl struct {
	store   *config.Store
	svc     dispatcher
	in      io.Reader
	out     io.Writer
	glam    *glamour.TermRenderer
	printer *pp.PrettyPrinter

	stream  bool
	history []messages.ChatMessage
}

func newREPL(store *config.Store, svc dispatcher, in io.Reader, out io.Writer) (*repl, error) {
	glam, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return nil, err
	}
	printer := pp.New()
	printer.SetOutput(out)
	printer.SetColoringEnabled(!color.NoColor)

	return &repl{
		store:   store,
		svc:     svc,
		in:      in,
		out:     out,
		glam:    glam,
		printer: printer,
		stream:  true,
	}, nil
}

func (r *repl) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Split(bufio.ScanLines)

	if !r.svc.IsReady() {
		fmt.Fprintln(r.out, color.YellowString("No API key configured. Use /key <api key> or set %s.", envAPIKey))
	}

	for {
		fmt.Fprintf(r.out, "%s: ", color.CyanString("User"))
		if !scanner.Scan() {
			fmt.Fprintln(r.out, "Exiting...")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), input == "/quit":
			return nil
		case strings.HasPrefix(input, "/"):
			if err := r.command(input); err != nil {
				fmt.Fprintln(r.out, color.RedString("error: %v", err))
			}
		default:
			r.chat(ctx, input)
		}
	}
}

func (r *repl) chat(ctx context.Context, input string) {
	r.history = append(r.history, messages.User(input))

	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	provider := r.store.Get().ProviderID
	if !r.stream {
		resp := r.svc.SendMessage(turnCtx, r.history)
		switch {
		case resp.Cancelled:
			fmt.Fprintln(r.out, color.YellowString("(cancelled)"))
			r.history = r.history[:len(r.history)-1]
		case resp.IsError:
			fmt.Fprintln(r.out, color.RedString("error: %s", resp.ErrorMessage))
			r.history = r.history[:len(r.history)-1]
		default:
			r.history = append(r.history, messages.Assistant(resp.Content))
			fmt.Fprintf(r.out, "%s:\n%s", color.MagentaString(provider), r.render(resp.Content))
		}
		return
	}

	var content strings.Builder
	var failed bool
	fmt.Fprintf(r.out, "%s: ", color.MagentaString(provider))
	r.svc.SendMessageStream(turnCtx, r.history,
		func(delta string) {
			content.WriteString(delta)
			fmt.Fprint(r.out, delta)
		},
		func(msg string) {
			failed = true
			fmt.Fprint(r.out, color.RedString("error: %s", msg))
		},
	)
	fmt.Fprintln(r.out)

	if failed || turnCtx.Err() != nil || content.Len() == 0 {
		if turnCtx.Err() != nil {
			fmt.Fprintln(r.out, color.YellowString("(cancelled)"))
		}
		r.history = r.history[:len(r.history)-1]
		return
	}
	r.history = append(r.history, messages.Assistant(content.String()))
}

func (r *repl) render(content string) string {
	out, err := r.glam.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func (r *repl) command(input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/config":
		return r.showConfig()
	case "/schema":
		b, err := json.MarshalIndent(r.store.Schema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, string(b))
	case "/providers":
		current := r.store.Get().ProviderID
		for _, desc := range r.store.Registry().All() {
			marker := " "
			if desc.ID == current {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %-10s %s (%s)\n", marker, desc.ID, desc.DisplayName, desc.BaseURL)
		}
	case "/models":
		current := r.store.Get().Model
		for _, m := range r.store.AvailableModels() {
			marker := " "
			if m == current {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %s\n", marker, m)
		}
	case "/provider":
		return r.update(config.Update{ProviderID: swag.String(arg)})
	case "/model":
		return r.update(config.Update{Model: swag.String(arg)})
	case "/key":
		return r.update(config.Update{APIKey: swag.String(arg)})
	case "/base-url":
		return r.update(config.Update{BaseURL: swag.String(arg)})
	case "/temperature":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q", arg)
		}
		return r.update(config.Update{Temperature: swag.Float64(t)})
	case "/max-tokens":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid token limit %q", arg)
		}
		return r.update(config.Update{MaxTokens: swag.Int(n)})
	case "/stream":
		switch strings.ToLower(arg) {
		case "on":
			r.stream = true
		case "off":
			r.stream = false
		default:
			return fmt.Errorf("usage: /stream on|off")
		}
	case "/reset":
		r.store.Reset()
		r.svc.UpdateConfig()
	case "/clear":
		r.history = nil
	default:
		return fmt.Errorf("unknown command %s, try /help", name)
	}
	return nil
}

func (r *repl) update(u config.Update) error {
	if err := r.store.Update(u); err != nil {
		return err
	}
	r.svc.UpdateConfig()
	return r.showConfig()
}

func (r *repl) showConfig() error {
	b, err := r.store.Get().RedactedJSON()
	if err != nil {
		return err
	}
	var view map[string]any
	if err := json.Unmarshal(b, &view); err != nil {
		return err
	}
	_, err = r.printer.Println(view)
	return err
}
