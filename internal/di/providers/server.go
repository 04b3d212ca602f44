package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/api"
	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/service"
	"github.com/listenupapp/tagcurator/internal/similarity"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// ProvideCurationService provides the service that serializes corpus writes.
func ProvideCurationService(i do.Injector) (*service.CurationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCurationService(
		storeHandle.Store,
		do.MustInvoke[*corpus.Corpus](i),
		do.MustInvoke[*consolidator.Consolidator](i),
		log.Component("curation"),
	), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	errs <-chan error
}

// Err returns a channel that receives the error if the server stops serving
// for any reason other than Shutdown.
func (h *HTTPServerHandle) Err() <-chan error {
	return h.errs
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the review API server. The port is bound before
// returning so a busy port fails here; serving runs in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*TagIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Curation:     do.MustInvoke[*service.CurationService](i),
		Consolidator: do.MustInvoke[*consolidator.Consolidator](i),
		Analyzer:     do.MustInvoke[*analyzer.Analyzer](i),
		Similarity:   do.MustInvoke[*similarity.Engine](i),
		Search:       indexHandle.TagIndex,
	}

	handler := api.NewServer(storeHandle.Store, services, api.Config{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		ClusterMinSize:    cfg.Clustering.MinSize,
		ClusterResolution: cfg.Clustering.Resolution,
		WriteRate:         cfg.Server.WriteRate,
		WriteBurst:        cfg.Server.WriteBurst,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}
	srv.Addr = ln.Addr().String()

	errs := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
			errs <- err
		}
	}()

	return &HTTPServerHandle{Server: srv, errs: errs}, nil
}
