package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"nvivas/backend/tictactoe-ai-server/internal/api"
	"nvivas/backend/tictactoe-ai-server/internal/client"
	"nvivas/backend/tictactoe-ai-server/internal/config"
	"nvivas/backend/tictactoe-ai-server/internal/hub"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// wsHandler atiende las conexiones WebSocket entrantes
type wsHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	ctx      context.Context
}

func newWSHandler(ctx context.Context, h *hub.Hub, cfg config.Config) *wsHandler {
	return &wsHandler{
		hub: h,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// ServeHTTP maneja una conexión: ?session=<id> reanuda una sesión existente
func (ws *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Actualizar la conexión HTTP a WebSocket
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error al actualizar la conexión WebSocket", logger.Fields{
			"error": err.Error(),
			"path":  r.URL.Path,
		})
		return
	}

	// Crear una instancia de Client con el contexto del servidor
	c := client.NewClient(uuid.NewString(), ws.hub, conn, ws.ctx)

	// Registrar al cliente en el Hub
	s, resumed, err := ws.hub.RegisterClient(r.Context(), c, r.URL.Query().Get("session"))
	if err != nil {
		logger.Error("No se pudo registrar el cliente", logger.Fields{
			"clientID": c.GetID(),
			"error":    err.Error(),
		})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		conn.Close()
		return
	}
	c.Session = s
	c.SendSessionStarted(resumed)

	// Iniciar goroutines para manejar la comunicación
	go c.ReadPump()
	go c.WritePump()

	logger.Info("Nueva conexión establecida", logger.Fields{
		"clientID":  c.GetID(),
		"sessionID": s.ID,
		"remote":    conn.RemoteAddr().String(),
	})
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		logger.Fatal("Configuración inválida", logger.Fields{"error": err.Error()})
	}

	// Inicializar el logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Fatal("Configuración de logs inválida", logger.Fields{"error": err.Error()})
	}

	// Contexto cancelado por las señales del sistema
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(start(ctx, cfg))
}

func start(ctx context.Context, cfg config.Config) int {
	errg, ctx := errgroup.WithContext(ctx)

	// Crear el Hub con el contexto del servidor
	mainHub := hub.NewHub(ctx, cfg.SessionTTL)
	errg.Go(func() error { return mainHub.Run(ctx, cfg.SweepInterval) })

	logger.Info("Hub iniciado", logger.Fields{
		"sessionTTL":    cfg.SessionTTL.String(),
		"sweepInterval": cfg.SweepInterval.String(),
	})

	// Configurar servidor con opciones de cierre controlado
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(mainHub, newWSHandler(ctx, mainHub, cfg)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errg.Go(func() error {
		logger.Info("Iniciando servidor", logger.Fields{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	errg.Go(func() error {
		<-ctx.Done()
		logger.Info("Recibida señal de apagado, iniciando shutdown", nil)

		// Crear contexto con timeout para el shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error durante el shutdown del servidor", logger.Fields{"error": err.Error()})
		}
		return nil
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Error del servidor", logger.Fields{"error": err.Error()})
		return 1
	}

	logger.Info("Servidor detenido correctamente", nil)
	return 0
}
