package api

import (
	"errors"
	"net/http"
	"time"

	"Booster/booster"
	"Booster/cache"
	"Booster/config"
	"Booster/process"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

const (
	EnableOp      = "enable"
	DisableOp     = "disable"
	AutoDetectOp  = "auto-detect"
	PreferencesOp = "preferences"
	StatusOp      = "status"
)

// Booster is the engine surface the API drives.
type Booster interface {
	Enable() (booster.Summary, error)
	Disable() booster.Summary
	UpdateConfig(prefs config.Preferences)
	Preferences() config.Preferences
	State() booster.State
	Stats() booster.Stats
	Boosted() []int32
	AllowedPaths() []string
	InstallPath() string
	Detect() ([]process.Candidate, error)
}

type Notifier interface {
	Infof(f string, args ...any)
	Errorf(f string, args ...any)
}

type Status struct {
	State        booster.State `json:"state"`
	Stats        booster.Stats `json:"stats"`
	Boosted      []int32       `json:"boosted"`
	AllowedPaths []string      `json:"allowed_paths"`
	InstallPath  string        `json:"install_path"`
	Version      string        `json:"version"`
}

type Result struct {
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Event struct {
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	Error     string  `json:"error,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Server is the local control surface used by the front end.
type Server struct {
	engine      Booster
	notify      Notifier
	e           *echo.Echo
	subscribers mapset.Set[*websocket.Conn]
	processes   *cache.Cache[[]process.Candidate]
}

func New(engine Booster, notify Notifier, processTTL time.Duration) *Server {
	s := &Server{
		engine:      engine,
		notify:      notify,
		e:           echo.New(),
		subscribers: mapset.NewSet[*websocket.Conn](),
	}
	s.processes = cache.CreateCache(processTTL, true, engine.Detect)
	s.e.HideBanner = true
	s.e.Use(middleware.Logger(), middleware.Recover())
	s.routes()
	return s
}

func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) Start(addr string) error {
	log.Infof("Control API listening on %s", addr)
	return s.e.Start(addr)
}

func (s *Server) Close() error {
	for _, ws := range s.subscribers.ToSlice() {
		ws.Close()
	}
	return s.e.Close()
}

func (s *Server) status() Status {
	return Status{
		State:        s.engine.State(),
		Stats:        s.engine.Stats(),
		Boosted:      s.engine.Boosted(),
		AllowedPaths: s.engine.AllowedPaths(),
		InstallPath:  s.engine.InstallPath(),
		Version:      booster.Version,
	}
}

// Publish broadcasts an operation outcome to every subscriber and the notifier.
func (s *Server) Publish(op string, summary booster.Summary, err error) {
	event := Event{Type: op, Timestamp: time.Now().UnixMilli()}
	if !summary.Empty() {
		event.Text = summary.String()
	}
	if err != nil {
		event.Error = err.Error()
	}
	if s.notify != nil {
		switch {
		case err != nil && event.Text != "":
			s.notify.Errorf("%s\n%s", event.Error, event.Text)
		case err != nil:
			s.notify.Errorf("%s", event.Error)
		case event.Text != "":
			s.notify.Infof("%s", event.Text)
		}
	}
	s.broadcast(event)
}

func (s *Server) broadcast(event Event) {
	for _, ws := range s.subscribers.ToSlice() {
		if err := websocket.JSON.Send(ws, event); err != nil {
			log.Debugf("dropping subscriber: %v", err)
			s.subscribers.Remove(ws)
			ws.Close()
		}
	}
}

func httpStatus(err error) int {
	var tooMany *booster.TooManyProcessesError
	switch {
	case errors.Is(err, booster.ErrNoProcessesFound):
		return http.StatusNotFound
	case errors.As(err, &tooMany):
		return http.StatusConflict
	case errors.Is(err, booster.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) routes() {
	s.e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.status())
	})
	s.e.POST("/enable", func(c echo.Context) error {
		summary, err := s.engine.Enable()
		s.Publish(EnableOp, summary, err)
		if err != nil {
			return c.JSON(httpStatus(err), Result{Summary: summary.String(), Error: err.Error()})
		}
		return c.JSON(http.StatusOK, Result{Summary: summary.String()})
	})
	s.e.POST("/disable", func(c echo.Context) error {
		summary := s.engine.Disable()
		s.Publish(DisableOp, summary, nil)
		return c.JSON(http.StatusOK, Result{Summary: summary.String()})
	})
	s.e.GET("/processes", func(c echo.Context) error {
		body, err := s.processes.GetMarshalled()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, Result{Error: err.Error()})
		}
		return c.JSONBlob(http.StatusOK, []byte(body))
	})
	s.e.GET("/preferences", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.engine.Preferences())
	})
	s.e.PUT("/preferences", func(c echo.Context) error {
		prefs := s.engine.Preferences()
		if err := c.Bind(&prefs); err != nil {
			return c.JSON(http.StatusBadRequest, Result{Error: err.Error()})
		}
		s.engine.UpdateConfig(prefs)
		s.Publish(PreferencesOp, booster.Summary{Headline: "Preferences updated"}, nil)
		return c.JSON(http.StatusOK, prefs)
	})
	s.e.GET("/events", func(c echo.Context) error {
		websocket.Handler(func(ws *websocket.Conn) {
			s.subscribers.Add(ws)
			defer func() {
				s.subscribers.Remove(ws)
				ws.Close()
			}()
			status := s.status()
			if err := websocket.JSON.Send(ws, Event{Type: StatusOp, Status: &status, Timestamp: time.Now().UnixMilli()}); err != nil {
				return
			}
			for {
				msg := ""
				if err := websocket.Message.Receive(ws, &msg); err != nil {
					return
				}
			}
		}).ServeHTTP(c.Response(), c.Request())
		return nil
	})
}
