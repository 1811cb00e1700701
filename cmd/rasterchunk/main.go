// Command-line tool for planning and running chunked reads over large rasters.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/janelia-flyem/rasterchunk/config"
	"github.com/janelia-flyem/rasterchunk/raster"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to TOML configuration file.
	configFile = flag.String("config", "", "")

	// Number of goroutines reading chunks.  Overrides the config if set.
	numWorkers = flag.Int("workers", 0, "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")
)

const helpMessage = `
rasterchunk plans and runs memory-efficient chunked processing of large rasters

Usage: rasterchunk [options] <command>

      -config     =string   TOML configuration file.
      -workers    =number   Number of goroutines reading chunks (default: config or all CPUs).
      -cpuprofile =string   Write CPU profile to this file.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	plan   <width> <height> [block size ...]
	import <dataset path> <tiff file> [band=<n>] [geotransform=<xoff,a,b,yoff,d,e>]
	info   <dataset path>
	stats  <dataset path> [band=<n>]
	stats  <bucket url> <object key> <width> <height>
	export <dataset path> <bucket url> <object key> [band=<n>]
	align  <dataset A> <dataset B> [band=<n>] [center=true] [limit=<chunks>]

Chunking, cache and store settings come from the configuration file.  Bucket urls
may use the file://, mem://, gs:// or s3:// schemes.
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
	if err := cfg.Logging.SetLogger(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if *runVerbose {
		raster.Verbose = true
		raster.SetLogMode(raster.DebugMode)
	}
	if *numWorkers > 0 {
		cfg.Chunking.Workers = *numWorkers
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	// Interrupts cancel any chunk traversal in progress.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := DoCommand(ctx, cfg, Command(flag.Args()))
	raster.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, cfg *config.Config, cmd Command) error {
	if len(cmd) == 0 {
		return fmt.Errorf("blank command")
	}
	switch cmd.Name() {
	case "plan":
		return DoPlan(cfg, cmd)
	case "import":
		return DoImport(cfg, cmd)
	case "info":
		return DoInfo(cfg, cmd)
	case "stats":
		return DoStats(ctx, cfg, cmd)
	case "export":
		return DoExport(ctx, cfg, cmd)
	case "align":
		return DoAlign(cfg, cmd)
	case "about":
		fmt.Printf("rasterchunk, dataset format %s\n", formatVersion())
	default:
		return fmt.Errorf("unknown command %q, try 'rasterchunk help'", cmd.Name())
	}
	return nil
}
