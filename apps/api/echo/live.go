package echoapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// queryJWTMiddleware reads the admin token from the "token" query parameter.
func (s *Server) queryJWTMiddleware() echo.MiddlewareFunc {
	conf := s.jwtConf
	conf.TokenLookup = "query:token"
	return middleware.JWTWithConfig(conf)
}

func (s *Server) upgrader() *websocket.Upgrader {
	origin := s.deps.Conf.FrontendBaseURL
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin || s.deps.Conf.Debug
		},
	}
}

// live pushes a census.Event to the dashboard every time the submissions change.
func (api *adminApi) live(ctx echo.Context) error {
	// subscribe before the handshake completes so no event is missed by the client
	events, cancel := api.deps.CensusSvc.Subscribe()
	defer cancel()

	conn, err := api.s.upgrader().Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader already replied
	}
	defer conn.Close()

	// the client never sends anything: reading only serves to detect the close
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Request().Context().Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				api.deps.Logger.Warn("writing live event", err)
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
