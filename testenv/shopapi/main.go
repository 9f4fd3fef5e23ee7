// Command shopapi serves the in-memory shop API used by the tests on a
// fixed port, for the e2e suite and for trying the client by hand.
//
//	go run ./testenv/shopapi -addr :18080
//	storefront --api http://localhost:18080 view products
package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/logging"
	"github.com/0x6d61/storefront/internal/testutil"
)

func main() {
	addr := flag.String("addr", ":18080", "Listen address")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(*level, "")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	shop := testutil.NewShopServer()
	defer shop.Close()

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(shop.Config.Handler)

	srv := &http.Server{Addr: *addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = srv.Close()
	}()

	logger.Info("shop api listening",
		zap.String("addr", *addr),
		zap.String("admin", testutil.AdminEmail),
		zap.String("user", testutil.UserEmail))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
