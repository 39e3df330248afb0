package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"quickshare/internal/auth"
	"quickshare/internal/config"
	"quickshare/internal/netif"
	"quickshare/internal/qr"
	"quickshare/internal/server"
)

const listenHost = "0.0.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	gin.SetMode(gin.ReleaseMode)

	if len(os.Args) > 1 && os.Args[1] == "passwd" {
		passwdCmd(os.Args[2:])
		return
	}

	cli, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(cli); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

type cliOptions struct {
	path string
	cfg  *config.Config
}

// parseArgs accepts flags before or after the share path.
func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("quickshare", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		port     = fs.Int("port", 0, "port to use (default: auto-select from 8001)")
		iface    = fs.String("interface", "", "interface name or IPv4 for the QR code (skips the prompt)")
		cfgPath  = fs.String("config", os.Getenv("QUICKSHARE_CONFIG"), "path to YAML config (optional)")
		webdav   = fs.Bool("webdav", false, "also serve the directory read-only over WebDAV")
		noThumbs = fs.Bool("no-thumbs", false, "disable image thumbnails in listings")
	)

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: quickshare [flags] <path>")
		fmt.Fprintln(stderr, "       quickshare passwd -p <password>")
		fs.PrintDefaults()
	}

	var path string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}

		if fs.NArg() == 0 {
			break
		}

		if path != "" {
			err := fmt.Errorf("unexpected argument %q", fs.Arg(0))
			fmt.Fprintln(stderr, err)
			fs.Usage()
			return nil, err
		}

		path = fs.Arg(0)
		args = fs.Args()[1:]
	}

	if path == "" {
		err := errors.New("missing path to share")
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return nil, err
		}
		cfg = loaded
	}

	// Flags given explicitly win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "interface":
			cfg.Interface = *iface
		case "webdav":
			cfg.WebDAV = *webdav
		case "no-thumbs":
			thumbs := !*noThumbs
			cfg.Thumbnails = &thumbs
		}
	})

	if cfg.Port < 0 || cfg.Port > 65535 {
		fmt.Fprintf(stderr, "invalid port %d\n", cfg.Port)
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}

	return &cliOptions{path: path, cfg: cfg}, nil
}

func run(cli *cliOptions) error {
	cfg := cli.cfg

	root, err := server.NewShareRoot(cli.path)
	if err != nil {
		return err
	}

	addrs, err := netif.Interfaces()
	if err != nil {
		return fmt.Errorf("no valid network interface found: %w", err)
	}

	addr, err := netif.Select(addrs, os.Stdin, os.Stdout, cfg.Interface)
	if err != nil {
		return err
	}

	ln, err := netif.Listen(listenHost, cfg.Port)
	if err != nil {
		return err
	}

	accessURL := server.AccessURL(root, addr.IP.String(), netif.Port(ln))

	srv, err := server.New(server.Options{
		Root:           root,
		FollowSymlinks: *cfg.FollowSymlinks,
		Thumbnails:     *cfg.Thumbnails,
		Readme:         *cfg.Readme,
		WebDAV:         cfg.WebDAV,
		Auth:           cfg.Auth,
		ThumbCacheDir:  thumbCacheDir(),
		AccessURL:      accessURL,
	})
	if err != nil {
		ln.Close()
		return fmt.Errorf("server init: %w", err)
	}

	fmt.Printf("\nQuickShare server started at %s\n", accessURL)
	fmt.Printf("Bound to all interfaces but QR shows %s\n", addr.IP)
	if cfg.Auth.Enabled() {
		fmt.Printf("Basic auth enabled for user %q\n", cfg.Auth.Username)
	}
	fmt.Print("Press Ctrl+C to stop the server.\n\n")

	qr.Print(os.Stdout, accessURL, cfg.QR.Invert)
	fmt.Printf("\nScan QR code to access: %s\n\n", accessURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, ln)
}

func thumbCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		log.Printf("thumbnail cache disabled: %v", err)
		return ""
	}

	return filepath.Join(dir, "quickshare", "thumbs")
}

func passwdCmd(args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	var (
		password = fs.String("p", "", "password (required)")
		cost     = fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	)
	_ = fs.Parse(args)

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: quickshare passwd -p <password>")
		os.Exit(2)
	}
	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "invalid cost %d (min=%d max=%d)\n", *cost, bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(2)
	}

	h, err := auth.Hash(*password, *cost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	fmt.Println(h)
}
