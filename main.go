package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pstuifzand/tui-columns/internal/app"
	"github.com/pstuifzand/tui-columns/internal/config"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/pstuifzand/tui-columns/internal/socket"
	"github.com/pstuifzand/tui-columns/internal/storage"
)

// commandList collects repeated -c flags.
type commandList []string

func (c *commandList) String() string { return strings.Join(*c, "; ") }

func (c *commandList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	logFile, err := os.Create("tuc.log")
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var commands commandList
	debug := flag.Bool("debug", false, "Enable debug mode (shows key events in status)")
	flag.Var(&commands, "c", "Run a command on the whole document and print the result (repeatable)")
	send := flag.String("send", "", "Run a command in a running tuc instance")
	printText := flag.Bool("print", false, "With -send, print the document afterwards")
	fontName := flag.String("font", "", "Filter mode: measure text with a font (regular, fixed) instead of cells")
	flag.Parse()

	if *send != "" {
		if err := sendCommand(*send, *printText); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var filePath string
	if args := flag.Args(); len(args) > 0 {
		filePath = args[0]
	}

	if len(commands) > 0 || !term.IsTerminal(int(os.Stdin.Fd())) {
		m, err := measure(*fontName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := filter(cfg, filePath, commands, m); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	application, err := app.NewApp(cfg, filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		application.SetDebugMode(true)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

// filter runs commands over the file, or standard input when there is no
// file, with the whole document selected before each command. The result
// goes to standard output and command messages to standard error. Without
// commands the columns are laid out with elastic tabstops and the tabs
// replaced by spaces.
func filter(cfg *config.Config, filePath string, commands []string, m host.Metrics) error {
	var store *storage.FileStore
	var text string
	if filePath != "" {
		store = storage.NewFileStore(filePath)
		t, err := store.Load()
		if err != nil {
			return err
		}
		text = t
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
		text = string(data)
	}

	ws := app.NewMeasuredWorkspace(cfg, store, text, m)
	if len(commands) == 0 {
		ws.Elastic.SetEnabled(true)
		commands = []string{"tabs2spaces"}
	}

	ctx := context.Background()
	for _, line := range commands {
		if err := ws.SelectDocument(ctx); err != nil {
			return err
		}
		msg, err := ws.Execute(ctx, line)
		if err != nil {
			return err
		}
		log.Printf("filter %q: %s", line, msg)
		if msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	_, err := io.WriteString(os.Stdout, ws.Doc.String())
	return err
}

// measure returns the text metrics named by the -font flag.
func measure(name string) (host.Metrics, error) {
	switch name {
	case "":
		return metrics.CellMetrics{Cell: 1}, nil
	case "regular":
		return metrics.NewGoRegular(13), nil
	case "fixed":
		return metrics.NewFixed(), nil
	}
	return nil, fmt.Errorf("unknown font %q, expected regular or fixed", name)
}

// sendCommand runs line in the most recently started tuc instance.
func sendCommand(line string, printText bool) error {
	socketPath, pid, err := socket.FindRunningInstance()
	if err != nil {
		return fmt.Errorf("no running tuc instance found: %w", err)
	}

	log.Printf("Found running instance at PID %d: %s", pid, socketPath)

	client, err := socket.NewClient(socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	response, err := client.Execute(line, printText)
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("server error: %s", response.Message)
	}
	if response.Message != "" {
		fmt.Fprintln(os.Stderr, response.Message)
	}
	if printText {
		fmt.Print(response.Text)
	}
	return nil
}
