package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halvard/chime/internal/artwork"
	"github.com/halvard/chime/internal/audio"
	"github.com/halvard/chime/internal/config"
	"github.com/halvard/chime/internal/control"
	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/player"
)

var (
	configPath = flag.String("config", config.DefaultPath(), "Path to configuration file")
	addr       = flag.String("addr", "", "Control server listen address (overrides config)")
	libraryDir = flag.String("library", "", "Music library directory (overrides config)")
	noWatch    = flag.Bool("no-watch", false, "Disable library directory watching")
	daemonMode = flag.Bool("daemon", false, "Run the control server daemon (otherwise play files and exit)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Control.Addr = *addr
	}
	if *libraryDir != "" {
		cfg.Library.Directory = *libraryDir
	}
	if *noWatch {
		cfg.Library.Watch = false
	}

	engine := audio.NewEngine(cfg.Playback.Volume)
	p := player.New(engine, cfg.Playback.Volume)

	// Direct mode: load the given files into the queue and play.
	if !*daemonMode {
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintf(os.Stderr, "Usage: %s [options] <file1> [file2] ...\n", os.Args[0])
			fmt.Fprintf(os.Stderr, "       %s --daemon\n", os.Args[0])
			fmt.Fprintf(os.Stderr, "\nOptions:\n")
			flag.PrintDefaults()
			os.Exit(1)
		}
		runDirect(p, files)
		return
	}

	runDaemon(cfg, p)
}

// runDaemon scans the library, starts the watcher and the control
// server, and runs until interrupted.
func runDaemon(cfg *config.Config, p *player.Player) {
	catalog := library.NewCatalog()

	tracks, err := library.Scan(cfg.Library.Directory, audio.ProbeDuration)
	if err != nil {
		log.Printf("Initial library scan failed: %v", err)
	}
	library.Sort(tracks, library.SortByArtist, library.Ascending)
	catalog.Set(tracks)

	var rescan func()
	if cfg.Library.Watch {
		watcher, err := library.NewWatcher(audio.ProbeDuration, time.Duration(cfg.Library.DebounceSeconds)*time.Second)
		if err != nil {
			log.Printf("Library watching disabled: %v", err)
		} else {
			defer watcher.Close()
			watcher.SetPath(cfg.Library.Directory)
			rescan = watcher.Refresh
			go func() {
				for tracks := range watcher.Updates() {
					library.Sort(tracks, library.SortByArtist, library.Ascending)
					catalog.Set(tracks)
				}
			}()
		}
	}

	art, err := artwork.NewCache(cfg.Artwork.Directory, int64(cfg.Artwork.MaxSizeMB)<<20)
	if err != nil {
		log.Printf("Artwork cache disabled: %v", err)
		art = nil
	}

	server := control.NewServer(cfg.Control.Addr, p, catalog, cfg.Playlists.Directory, art, rescan)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start control server: %v", err)
	}
	defer server.Stop()

	log.Printf("Chime running in daemon mode")
	log.Printf("Connect a client to %s", cfg.Control.Addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Printf("Shutting down...")
	p.Stop()
}

// runDirect plays the given files front to back and exits.
func runDirect(p *player.Player, files []string) {
	tracks := make([]library.Track, 0, len(files))
	for _, path := range files {
		track, err := library.ReadTrack(path, audio.ProbeDuration)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		tracks = append(tracks, track)
	}

	log.Printf("Starting playback of %d tracks...", len(tracks))
	if err := p.LoadQueue(tracks, 0); err != nil {
		log.Fatalf("Failed to start playback: %v", err)
	}

	// Run until the queue finishes or the user interrupts.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			log.Printf("Shutting down...")
			p.Stop()
			return
		case <-ticker.C:
			if p.StateNow() == player.StateStopped {
				return
			}
		}
	}
}
