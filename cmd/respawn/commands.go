package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/respawn/internal/config"
	"github.com/loykin/respawn/internal/metrics"
	"github.com/loykin/respawn/internal/server"
	"github.com/loykin/respawn/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
)

func newClient(flags ProcessFlags) *client.Client {
	return client.New(client.Config{BaseURL: flags.APIUrl, Timeout: flags.APITimeout})
}

func runStart(configPath string, flags ProcessFlags) error {
	if flags.APIUrl != "" {
		return startRemote(configPath, flags)
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if flags.Name == "" {
		return a.eng.StartAll(a.cfg.Specs())
	}
	spec, ok := a.cfg.SpecFor(flags.Name)
	if !ok {
		return fmt.Errorf("process %q not found in %s", flags.Name, configPath)
	}
	return a.eng.Start(spec)
}

func startRemote(configPath string, flags ProcessFlags) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	c := newClient(flags)
	ctx := context.Background()
	specs := cfg.Specs()
	if flags.Name != "" {
		spec, ok := cfg.SpecFor(flags.Name)
		if !ok {
			return fmt.Errorf("process %q not found in %s", flags.Name, configPath)
		}
		specs = specs[:0]
		specs = append(specs, spec)
	}
	var errs []error
	for _, spec := range specs {
		err := c.Start(ctx, client.Spec{
			Name:         spec.Name,
			Command:      spec.Command,
			Args:         spec.Args,
			WorkDir:      spec.WorkDir,
			Env:          spec.Env,
			RestartDelay: spec.RestartDelay,
			MaxRestarts:  spec.MaxRestarts,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runStop(configPath string, flags ProcessFlags) error {
	if flags.APIUrl != "" {
		c := newClient(flags)
		ctx := context.Background()
		if flags.Name != "" {
			return c.Stop(ctx, flags.Name)
		}
		statuses, err := c.Status(ctx)
		if err != nil {
			return err
		}
		var errs []error
		for _, st := range statuses {
			if err := c.Stop(ctx, st.Name); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()
	if flags.Name == "" {
		return a.eng.StopAll()
	}
	return a.eng.Stop(flags.Name)
}

func runRestart(configPath string, flags ProcessFlags) error {
	if flags.APIUrl != "" {
		return newClient(flags).Restart(context.Background(), flags.Name)
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// Freshly loaded configuration wins; fall back to the captured spec for
	// processes started ad hoc and absent from the file.
	spec, ok := a.cfg.SpecFor(flags.Name)
	if !ok {
		rec, err := a.eng.StatusOf(flags.Name)
		if err != nil {
			return err
		}
		spec = rec.Spec
	}
	return a.eng.Restart(spec)
}

func runStatus(w io.Writer, configPath string, flags ProcessFlags) error {
	if flags.APIUrl != "" {
		c := newClient(flags)
		ctx := context.Background()
		if flags.Name != "" {
			st, err := c.StatusOf(ctx, flags.Name)
			if err != nil {
				return err
			}
			printStatusTable(w, []statusRow{remoteRow(st)})
			return nil
		}
		statuses, err := c.Status(ctx)
		if err != nil {
			return err
		}
		rows := make([]statusRow, 0, len(statuses))
		for _, st := range statuses {
			rows = append(rows, remoteRow(st))
		}
		printStatusTable(w, rows)
		return nil
	}

	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if flags.Name != "" {
		rec, err := a.eng.StatusOf(flags.Name)
		if err != nil {
			return err
		}
		printStatusTable(w, []statusRow{localRow(rec)})
		return nil
	}
	recs := a.eng.Status()
	rows := make([]statusRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, localRow(rec))
	}
	printStatusTable(w, rows)
	return nil
}

func runCleanup(w io.Writer, configPath string, flags ProcessFlags) error {
	var removed []string
	if flags.APIUrl != "" {
		var err error
		removed, err = newClient(flags).Cleanup(context.Background())
		if err != nil {
			return err
		}
	} else {
		a, err := loadApp(configPath)
		if err != nil {
			return err
		}
		defer a.close()
		removed = a.eng.Cleanup()
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintln(w, "nothing to clean up")
		return nil
	}
	for _, name := range removed {
		_, _ = fmt.Fprintf(w, "removed %s\n", name)
	}
	return nil
}

func runServe(configPath string, flags ServeFlags) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	listen := a.cfg.Server.Listen
	if flags.Listen != "" {
		listen = flags.Listen
	}
	if listen == "" {
		listen = ":8080"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", server.NewRouter(a.eng, a.cfg.Server.BasePath).Handler())
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()
	fmt.Printf("respawn serving on %s%s\n", listen, a.cfg.Server.BasePath)

	if err := a.eng.StartAll(a.cfg.Specs()); err != nil {
		fmt.Printf("Warning: some processes failed to start: %v\n", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// Children are left running on purpose: the next run adopts them from
	// the persisted snapshot.
	fmt.Println("Shutting down, leaving children running...")
	return srv.Close()
}
