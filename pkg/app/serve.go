package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"glowlink/pkg/booking"
	"glowlink/pkg/httpapi"
	"glowlink/pkg/metrics"
	"glowlink/pkg/order"
)

// serve composes persistence, domain services and the HTTP servers, and
// blocks until the context is cancelled or a server fails.
func (c *cli) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := c.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	contact, closeContact, err := c.contactSource(ctx)
	if err != nil {
		return err
	}
	defer closeContact()

	manager := booking.NewManager(st.catalog, contact, order.NewSink(st.orders), c.cfg.BookingOptions(), c.logger)
	defer manager.Close()

	api := httpapi.New(httpapi.Deps{
		Bookings: manager,
		Orders:   st.orders,
		Catalog:  st.catalog,
		Contact:  contact,
		Health: func(ctx context.Context) error {
			return st.db.HealthCheck(ctx, 2*time.Second)
		},
	}, c.logger)

	servers, err := c.buildServers(api.Handler())
	if err != nil {
		return err
	}
	if c.cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, listener{
			name:   "metrics",
			server: &http.Server{Addr: ":" + strconv.Itoa(c.cfg.Monitoring.PrometheusPort), Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range servers {
		l := l
		g.Go(func() error {
			c.logger.Info("server listening", zap.String("name", l.name), zap.String("addr", l.server.Addr))
			var err error
			if l.tls {
				err = l.server.ListenAndServeTLS("", "")
			} else {
				err = l.server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server stopped unexpectedly: %w", l.name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, l := range servers {
			if err := l.server.Shutdown(shutdownCtx); err != nil {
				c.logger.Warn("server shutdown failed", zap.String("name", l.name), zap.Error(err))
			}
		}
		return nil
	})

	err = g.Wait()
	c.logger.Info("glowlink stopped")
	return err
}

type listener struct {
	name   string
	server *http.Server
	tls    bool
}

// buildServers returns the plain API server, or in domain mode an HTTPS server
// plus a :80 redirect.
func (c *cli) buildServers(handler http.Handler) ([]listener, error) {
	domain := c.cfg.HTTP.Domain
	if domain == "" {
		return []listener{{
			name: "api",
			server: &http.Server{
				Addr:         ":" + strconv.Itoa(c.cfg.HTTP.Port),
				Handler:      handler,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			},
		}}, nil
	}

	cert, err := selfSignedCertificate(domain, time.Now())
	if err != nil {
		return nil, fmt.Errorf("unable to generate certificate: %w", err)
	}
	c.logger.Info("using an ephemeral self-signed certificate", zap.String("domain", domain))
	return []listener{
		{
			name: "https",
			tls:  true,
			server: &http.Server{
				Addr:         ":443",
				Handler:      handler,
				TLSConfig:    &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			},
		},
		{
			name: "redirect",
			server: &http.Server{
				Addr:              ":80",
				Handler:           redirectHandler(domain),
				ReadHeaderTimeout: 5 * time.Second,
			},
		},
	}, nil
}

func redirectHandler(domain string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "https://" + domain + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}
