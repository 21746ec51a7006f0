// serve.go — The serve command: runs the recording daemon.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/internal/bridge"
)

// Serve runs the daemon until the process is terminated. The browser
// page connects over WebSocket at /ws; /health reports daemon state.
func Serve(cfg config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	srv := bridge.NewServer(bridge.Options{Store: store})

	if cfg.Discover {
		disc, err := bridge.Advertise(cfg.Port)
		if err != nil {
			// Discovery is a convenience; the daemon still serves.
			fmt.Fprintf(os.Stderr, "[WARNING] %v\n", err)
		} else {
			defer disc.Close()
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Fprintf(os.Stderr, "[annotrail] listening on %s (storage: %s)\n", addr, cfg.DataDir)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve_failed: Daemon stopped: %w", err)
	}
	return nil
}
