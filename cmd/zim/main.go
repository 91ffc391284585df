package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zimdsp/zimdsp"
	"github.com/zimdsp/zimdsp/internal/engine"
	"github.com/zimdsp/zimdsp/internal/graph"
	"github.com/zimdsp/zimdsp/internal/patch"
)

const (
	exitOK           = 0
	exitCompileError = 1
	exitAudioError   = 2
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitCompileError)
	}
	switch os.Args[1] {
	case "play":
		os.Exit(play(os.Args[2:]))
	case "repl":
		os.Exit(repl(os.Args[2:]))
	default:
		usage()
		os.Exit(exitCompileError)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: zim play [flags] <file.zim> | zim repl [flags]")
}

func play(args []string) int {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	var (
		sampleRate = fs.Int("sample-rate", engine.DefaultSampleRate, "output sample rate")
		bufferSize = fs.Int("buffer-size", 512, "frames per audio callback")
		render     = fs.String("render", "", "render offline to a WAV file instead of playing")
		seconds    = fs.Float64("seconds", 10, "duration of an offline render")
	)
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		return exitCompileError
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileError
	}
	text := string(data)

	if *render != "" {
		if err := zimdsp.RenderWAVFile(*render, text, *sampleRate, *seconds); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitCompileError
		}
		return exitOK
	}

	pl, err := zimdsp.NewPlayer(*sampleRate, zimdsp.WithBufferSize(*bufferSize))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitAudioError
	}
	if err := pl.LoadPatch(text); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileError
	}
	if err := pl.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitAudioError
	}
	defer pl.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return exitOK
}

func repl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	var (
		sampleRate = fs.Int("sample-rate", engine.DefaultSampleRate, "output sample rate")
		bufferSize = fs.Int("buffer-size", 512, "frames per audio callback")
	)
	fs.Parse(args)

	pl, err := zimdsp.NewPlayer(*sampleRate, zimdsp.WithBufferSize(*bufferSize))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitAudioError
	}
	defer pl.Close()

	s := session{player: pl}
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if quit := s.handle(strings.TrimSpace(scanner.Text())); quit {
			return exitOK
		}
		fmt.Print("> ")
	}
	return exitOK
}

// session accumulates patch statements until start compiles and publishes
// them.
type session struct {
	player  *zimdsp.Player
	pending []string
}

func (s *session) handle(line string) (quit bool) {
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit":
		return true
	case "start":
		s.start()
	case "stop":
		if err := s.player.Stop(); err != nil {
			fmt.Println("error:", err)
		}
	case "load":
		if len(fields) != 2 {
			fmt.Println("usage: load <file.zim>")
			return false
		}
		s.loadFile(fields[1])
	case "g", "gate":
		s.gate(fields, s.player.PressGate)
	case "r", "release":
		s.gate(fields, s.player.ReleaseGate)
	case "inspect":
		if len(fields) != 2 {
			fmt.Println("usage: inspect <type>")
			return false
		}
		s.inspect(fields[1])
	default:
		s.append(line)
	}
	return false
}

func (s *session) append(line string) {
	if _, err := patch.ParseLine(line); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.pending = append(s.pending, line)
}

func (s *session) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	// Validate before appending so a bad file leaves the session intact.
	if _, err := patch.Parse(string(data)); err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "#") {
			s.pending = append(s.pending, t)
		}
	}
	fmt.Println("loaded", path)
}

func (s *session) start() {
	if len(s.pending) > 0 {
		if err := s.player.LoadPatch(strings.Join(s.pending, "\n")); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	if err := s.player.Start(); err != nil {
		fmt.Println("error:", err)
	}
}

func (s *session) gate(fields []string, f func(string) error) {
	name := ""
	if len(fields) > 1 {
		name = fields[1]
	}
	if err := f(name); err != nil {
		fmt.Println("error:", err)
	}
}

func (s *session) inspect(typeName string) {
	spec, err := graph.Describe(typeName)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s\n", spec.Type)
	for _, p := range spec.Inputs {
		fmt.Printf("  in  %-12s %s\n", p.Name, p.Kind)
	}
	for _, p := range spec.Outputs {
		fmt.Printf("  out %-12s %s\n", p.Name, p.Kind)
	}
	for _, p := range spec.Params {
		fmt.Printf("  param %-10s default %g\n", p.Name, p.Default)
	}
}
