package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrdg/juno/audio"
	"github.com/mrdg/juno/synth"
)

func main() {
	var (
		rate    = flag.Float64("rate", 48000, "sample rate in Hz")
		buffer  = flag.Int("buffer", 256, "frames per audio buffer")
		mode    = flag.String("mode", "poly1", "voice assignment: poly1, poly2 or unison")
		preset  = flag.String("preset", "", "preset to load at startup")
		midiIn  = flag.String("midi", "", "play from the MIDI input whose name contains this")
		run     = flag.String("run", "", "file with commands to run at startup")
		render  = flag.String("render", "", "render to this WAV file instead of playing live")
		seconds = flag.Float64("seconds", 4, "length of the rendered file in seconds")
		notes   = flag.String("notes", "57,60,64", "comma separated notes held while rendering")
		analyze = flag.String("analyze", "", "print levels and pitch of a WAV file and exit")
	)
	flag.Parse()

	if *analyze != "" {
		if err := analyzeFile(*analyze, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *rate <= 0 || *buffer <= 0 {
		log.Fatal("sample rate and buffer size must be positive")
	}

	params := audio.NewParamStore(synth.DefaultParams())
	if err := params.Set("poly_mode", *mode); err != nil {
		log.Fatal(err)
	}
	if *preset != "" {
		if err := audio.LoadPreset(*preset, params); err != nil {
			log.Fatal(err)
		}
	}

	engine, err := audio.NewEngine(params, *rate, *buffer)
	if err != nil {
		log.Fatal(err)
	}
	sequencer := audio.NewSequencer(*rate)
	mixer := &audio.Mixer{}
	mixer.AddTicker(sequencer)
	mixer.AddSources(engine)

	env := &env{params: params, engine: engine, sequencer: sequencer, ccs: newCCMap()}

	commands, err := readCommands(*run)
	if err != nil {
		log.Fatal(err)
	}
	for _, line := range commands {
		if _, err := env.eval(line); err != nil {
			log.Fatal(err)
		}
	}

	if *render != "" {
		held, err := parseNotes(*notes)
		if err != nil {
			log.Fatal(err)
		}
		if err := bounceFile(*render, mixer, engine, held, *rate, *buffer, *seconds); err != nil {
			log.Fatal(err)
		}
		return
	}

	sink, err := audio.NewSink(mixer, *rate, *buffer)
	if err != nil {
		log.Fatal(err)
	}
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	if *midiIn != "" {
		stop, err := listenMIDI(*midiIn, engine, params, env.ccs)
		if err != nil {
			log.Fatal(err)
		}
		defer stop()
	}

	if err := repl(env, historyFile()); err != nil {
		log.Print(err)
	}
}

// readCommands returns the non-empty lines of the file at path, skipping
// lines starting with #.
func readCommands(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var commands []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return commands, scanner.Err()
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "juno_history")
}
