package preview

// This module implements a small web server that mirrors the frames being shown
// on the LED devices.  Browsers can either poll the most recent frame as an
// image or subscribe to every frame over a websocket.

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/frame"
)

var (
	logger = logxi.New("preview")
)

const (
	maxClients   = 32
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Message is the document sent to websocket clients for every frame, pixels
// are listed row by row as web colors
type Message struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Pixels []string `json:"pixels"`
}

func NewMessage(f *frame.Frame) (msg *Message) {
	msg = &Message{
		Width:  f.Width(),
		Height: f.Height(),
		Pixels: make([]string, 0, f.Len()),
	}
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			c, _ := f.Get(x, y)
			msg.Pixels = append(msg.Pixels, c.ToRGB().Web())
		}
	}
	return msg
}

// client serializes the writes to one websocket connection
type client struct {
	conn *websocket.Conn
	sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.Lock()
	defer c.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

type Server struct {
	upgrader websocket.Upgrader
	clients  map[*client]bool
	last     *frame.Frame
	sync.Mutex
}

func New() (srv *Server) {
	return &Server{
		upgrader: websocket.Upgrader{
			// The preview is read only so any page may show it
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: map[*client]bool{},
	}
}

// Router returns the handlers of the preview
func (srv *Server) Router() (router *gin.Engine) {
	router = gin.New()
	router.Use(gin.Recovery())
	router.GET("/", srv.index)
	router.GET("/frame", srv.frameJSON)
	router.GET("/frame.png", srv.framePNG)
	router.GET("/ws", srv.stream)
	return router
}

// Last is the most recent frame received
func (srv *Server) Last() *frame.Frame {
	srv.Lock()
	defer srv.Unlock()
	return srv.last
}

// Clients is the number of connected websocket clients
func (srv *Server) Clients() int {
	srv.Lock()
	defer srv.Unlock()
	return len(srv.clients)
}

// Follow records every frame from the channel and forwards it to the websocket
// clients until the channel closes or quitC is closed
func (srv *Server) Follow(frameC <-chan *frame.Frame, quitC <-chan struct{}) {
	go func() {
		for {
			select {
			case <-quitC:
				return
			case f, isOpen := <-frameC:
				if !isOpen {
					return
				}
				if f == nil {
					continue
				}
				srv.Lock()
				srv.last = f
				srv.Unlock()
				srv.broadcast(f)
			}
		}
	}()
}

func (srv *Server) broadcast(f *frame.Frame) {
	srv.Lock()
	if len(srv.clients) == 0 {
		srv.Unlock()
		return
	}
	clients := make([]*client, 0, len(srv.clients))
	for c := range srv.clients {
		clients = append(clients, c)
	}
	srv.Unlock()

	data, errGo := json.Marshal(NewMessage(f))
	if errGo != nil {
		logger.Warn("frame not encoded", "error", errGo.Error())
		return
	}

	failed := []*client{}
	for _, c := range clients {
		if errGo := c.write(websocket.TextMessage, data); errGo != nil {
			c.conn.Close()
			failed = append(failed, c)
		}
	}
	if len(failed) != 0 {
		srv.Lock()
		for _, c := range failed {
			delete(srv.clients, c)
		}
		srv.Unlock()
	}
}

func (srv *Server) frameJSON(c *gin.Context) {
	f := srv.Last()
	if f == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, NewMessage(f))
}

func (srv *Server) framePNG(c *gin.Context) {
	f := srv.Last()
	if f == nil {
		c.Status(http.StatusNoContent)
		return
	}
	buf := &bytes.Buffer{}
	if errGo := png.Encode(buf, f.Image()); errGo != nil {
		c.String(http.StatusInternalServerError, errGo.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (srv *Server) stream(c *gin.Context) {
	if srv.Clients() >= maxClients {
		c.String(http.StatusServiceUnavailable, "too many clients")
		return
	}

	conn, errGo := srv.upgrader.Upgrade(c.Writer, c.Request, nil)
	if errGo != nil {
		logger.Debug("websocket upgrade failed", "error", errGo.Error())
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}
	srv.Lock()
	srv.clients[cl] = true
	srv.Unlock()

	defer func() {
		srv.Lock()
		delete(srv.clients, cl)
		srv.Unlock()
	}()

	// Reading is needed to notice the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, errGo := conn.ReadMessage(); errGo != nil {
				if websocket.IsUnexpectedCloseError(errGo, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket closed", "error", errGo.Error())
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if errGo := cl.write(websocket.PingMessage, nil); errGo != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

// ListenAndServe runs the preview on addr until quitC is closed
func (srv *Server) ListenAndServe(addr string, errorC chan<- errors.Error, quitC <-chan struct{}) {
	server := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	go func() {
		<-quitC
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	go func() {
		logger.Info("preview started", "addr", addr)
		if errGo := server.ListenAndServe(); errGo != nil && errGo != http.ErrServerClosed {
			err := errors.Wrap(errGo).With("addr", addr).With("stack", stack.Trace().TrimRuntime())
			select {
			case errorC <- err:
			case <-time.After(100 * time.Millisecond):
				logger.Warn("preview stopped", "error", err.Error())
			}
		}
	}()
}

func (srv *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>xled preview</title>
<style>body{background:#111;margin:0}canvas{image-rendering:pixelated;width:100vmin}</style>
</head>
<body>
<canvas id="leds"></canvas>
<script>
const canvas = document.getElementById("leds");
const ctx = canvas.getContext("2d");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  canvas.width = msg.width;
  canvas.height = msg.height;
  msg.pixels.forEach((c, i) => {
    ctx.fillStyle = c;
    ctx.fillRect(i % msg.width, Math.floor(i / msg.width), 1, 1);
  });
};
</script>
</body>
</html>
`
