package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/nikakhov/bitshares-toolkit/app/services/node/handlers"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb/storage"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/genesis"
	"github.com/nikakhov/bitshares-toolkit/foundation/client"
	"github.com/nikakhov/bitshares-toolkit/foundation/client/trustee"
	"github.com/nikakhov/bitshares-toolkit/foundation/events"
	"github.com/nikakhov/bitshares-toolkit/foundation/logger"
	"github.com/nikakhov/bitshares-toolkit/foundation/nameservice"
	"github.com/nikakhov/bitshares-toolkit/foundation/p2p"
	"github.com/nikakhov/bitshares-toolkit/foundation/relay"
	"github.com/nikakhov/bitshares-toolkit/foundation/wallet"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Node struct {
			Mode           string   `conf:"default:p2p,help:transport mode: p2p or relay"`
			Host           string   `conf:"default:0.0.0.0:9080,help:advertised host for the p2p overlay"`
			Port           uint     `conf:"default:9080,help:port the p2p overlay listens on"`
			KnownPeers     []string `conf:"help:peers to connect to on startup"`
			RelayHost      string   `conf:"default:0.0.0.0:7090,help:relay hub address for relay mode"`
			DBPath         string   `conf:"default:zblock/blocks"`
			GenesisPath    string   `conf:"default:zblock/genesis.json"`
			AccountsFolder string   `conf:"default:zblock/accounts/"`
		}
		Trustee struct {
			Enabled  bool          `conf:"default:false,help:run the block production loop"`
			Name     string        `conf:"default:trustee1"`
			Interval time.Duration `conf:"default:30s"`
			Poll     time.Duration `conf:"default:1s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the accounts folder.
	ns, err := nameservice.New(cfg.Node.AccountsFolder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Events Support

	// The chain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// =========================================================================
	// Chain Database Support

	gen, err := genesis.Load(cfg.Node.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	disk, err := storage.NewDisk(cfg.Node.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open block storage: %w", err)
	}
	defer disk.Close()

	db, err := chaindb.New(gen, disk, ev)
	if err != nil {
		return fmt.Errorf("unable to open chain database: %w", err)
	}
	defer db.Close()

	// =========================================================================
	// Client Support

	// The client bridges the network transport to the chain database and
	// wallet and owns the unconfirmed transaction pool. Exactly one
	// transport is wired, chosen by the configured mode.
	var cl *client.Client
	var overlay *p2p.Node
	var relayClient *relay.Client

	switch cfg.Node.Mode {
	case "p2p":
		overlay = p2p.New(p2p.Config{
			Host:      cfg.Node.Host,
			EvHandler: ev,
		})
		cl = client.NewPeerToPeer(overlay, ev)

	case "relay":
		relayClient = relay.NewClient(relay.ClientConfig{
			EvHandler: ev,
		})
		cl = client.NewRelay(relayClient, ev)

	default:
		return fmt.Errorf("unknown node mode %q", cfg.Node.Mode)
	}
	defer cl.Shutdown()

	cl.SetChain(db)

	// =========================================================================
	// Trustee Support

	// When this node is a trustee, its private key signs the blocks it
	// produces and its wallet assembles them.
	if cfg.Trustee.Enabled {
		path := fmt.Sprintf("%s%s.ecdsa", cfg.Node.AccountsFolder, cfg.Trustee.Name)
		privateKey, err := crypto.LoadECDSA(path)
		if err != nil {
			return fmt.Errorf("unable to load private key for trustee: %w", err)
		}

		w := wallet.New(privateKey, db)
		if err := cl.SetWallet(w); err != nil {
			return fmt.Errorf("unable to attach wallet: %w", err)
		}
		log.Infow("startup", "status", "trustee wallet", "account", w.AccountID())

		// Run registers the loop with the client, so the client's
		// Shutdown joins it. No handle needs to be kept here.
		if _, err := trustee.Run(cl, privateKey, trustee.Config{
			Interval:  cfg.Trustee.Interval,
			Poll:      cfg.Trustee.Poll,
			EvHandler: ev,
		}); err != nil {
			return fmt.Errorf("unable to start trustee loop: %w", err)
		}
	}

	// =========================================================================
	// Network Support

	switch cfg.Node.Mode {
	case "p2p":
		if err := cl.ListenOn(uint16(cfg.Node.Port)); err != nil {
			return fmt.Errorf("unable to start overlay: %w", err)
		}
		defer overlay.Shutdown(context.Background())

		for _, peer := range cfg.Node.KnownPeers {
			if err := cl.ConnectTo(peer); err != nil {
				log.Infow("startup", "status", "peer unreachable", "peer", peer, "ERROR", err)
			}
		}

		if cl.IsConnected() {
			if err := cl.SyncFromHead(); err != nil {
				log.Infow("startup", "status", "initial sync failed", "ERROR", err)
			}
		}

	case "relay":
		if err := cl.ConnectTo(cfg.Node.RelayHost); err != nil {
			log.Infow("startup", "status", "relay unreachable", "relay", cfg.Node.RelayHost, "ERROR", err)
		}
		defer relayClient.Shutdown()
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Client:   cl,
		DB:       db,
		NS:       ns,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
