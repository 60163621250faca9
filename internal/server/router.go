// Package server exposes the supervisor over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/respawn/internal/engine"
	"github.com/loykin/respawn/internal/metrics"
	"github.com/loykin/respawn/internal/registry"
)

// Router provides embeddable HTTP handlers for the supervisor.
// Endpoints:
//
//	GET  {basePath}/status          all records (query: name=... for one)
//	POST {basePath}/start           body: Spec JSON
//	POST {basePath}/stop            query: name=...
//	POST {basePath}/restart         query: name=... (optional Spec JSON body)
//	POST {basePath}/cleanup         drop records whose PID is dead
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	eng      *engine.Engine
	basePath string
}

func NewRouter(eng *engine.Engine, basePath string) *Router {
	return &Router{eng: eng, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.POST("/cleanup", r.handleCleanup)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, eng *engine.Engine) *http.Server {
	r := NewRouter(eng, basePath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// statusView is one record enriched with a best-effort resource sample.
type statusView struct {
	registry.Record
	UptimeSeconds float64        `json:"uptime_seconds"`
	Usage         *metrics.Usage `json:"usage,omitempty"`
}

func view(rec registry.Record) statusView {
	v := statusView{Record: rec, UptimeSeconds: rec.Uptime(time.Now()).Seconds()}
	if rec.Status.Alive() && rec.PID > 0 {
		if u, err := metrics.Sample(rec.PID); err == nil {
			v.Usage = &u
		}
	}
	return v
}

func (r *Router) handleStatus(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		rec, err := r.eng.StatusOf(name)
		if err != nil {
			writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusOK, view(rec))
		return
	}
	recs := r.eng.Status()
	out := make([]statusView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, view(rec))
	}
	writeJSON(c, http.StatusOK, out)
}

func (r *Router) handleStart(c *gin.Context) {
	var spec registry.Spec
	if err := c.ShouldBindJSON(&spec); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isSafeName(spec.Name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	if !isSafeAbsPath(spec.WorkDir) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid work_dir: must be absolute path without traversal"})
		return
	}
	if err := r.eng.Start(spec); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, engine.ErrAlreadyRunning) {
			code = http.StatusConflict
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if err := r.eng.Stop(name); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, engine.ErrNotFound) {
			code = http.StatusNotFound
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

// handleRestart restarts name. Without a body it reuses the spec captured in
// the current record; a Spec JSON body replaces it (this is how a caller with
// fresh configuration pushes an updated spec).
func (r *Router) handleRestart(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	var spec registry.Spec
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&spec); err != nil {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
			return
		}
		if spec.Name != name {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "spec.name must match name query param"})
			return
		}
	} else {
		rec, err := r.eng.StatusOf(name)
		if err != nil {
			writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
			return
		}
		spec = rec.Spec
	}
	if err := r.eng.Restart(spec); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleCleanup(c *gin.Context) {
	removed := r.eng.Cleanup()
	if removed == nil {
		removed = []string{}
	}
	writeJSON(c, http.StatusOK, gin.H{"removed": removed})
}
